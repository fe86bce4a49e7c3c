package nft

import "errors"

var (
	// schema/authorization failures
	ErrInvalidSchema            = errors.New("nft: attached JSON schema is not a valid schema")
	ErrUnauthorizedRegistrator  = errors.New("nft: sender is not an authorized collection registrator")
	ErrIssuerNotAllowed         = errors.New("nft: sender is not an allowed issuer for the collection")
	ErrMetadataMismatch         = errors.New("nft: token attributes do not match the collection's fixed metadata")
	ErrAttributesSchemaMismatch = errors.New("nft: token attributes do not satisfy the collection schema")

	// ownership failures
	ErrNoTokens      = errors.New("nft: sender owns no tokens")
	ErrTokenNotOwned = errors.New("nft: sender does not own the token")

	// lifecycle failures
	ErrCollectionNotFound = errors.New("nft: collection does not exist")
	ErrSupplyExhausted    = errors.New("nft: collection maximum supply reached")
	ErrTokenInAuction     = errors.New("nft: token is escrowed by an open auction")
)
