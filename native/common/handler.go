package common

import (
	"nftchain/core/types"
)

// Index names maintained by the handlers. Every index maps a business key
// (collection id, token id, auction id, bid id) to the account that
// currently owns or holds it.
const (
	IndexCollections = "collections"
	IndexTokens      = "tokens"
	IndexAuctions    = "auctions"
	IndexBids        = "bids"
)

// Ledger exposes mutable accounts keyed by public key or address. Lookups by
// public key create the account on first use; the surrounding node persists
// accounts at commit time.
type Ledger interface {
	ByPublicKey(publicKey string) (*types.Account, error)
	ByAddress(address string) (*types.Account, error)
}

// IndexRegistry is the secondary index collaborator: named key → account
// maps, rebuilt incrementally as accounts are mutated. A handler that
// mutates an account attribute without the matching index call corrupts the
// index, so every mutation site pairs the two.
type IndexRegistry interface {
	Set(index, key string, acc *types.Account)
	Get(index, key string) (*types.Account, bool)
	Forget(index, key string)
}

// ChainView reports the current chain height, used for auction expiry.
type ChainView interface {
	Height() uint64
}

// Filter narrows a history stream. Zero values match everything; AuctionID
// matches the auction a bid or cancel points at, BidIDs restricts to
// transactions referencing one of the given bids.
type Filter struct {
	Kind      types.TxKind
	AuctionID string
	BidIDs    []string
}

// History is the read model over confirmed transactions, streamed in ledger
// order. It backs bootstrap replay and the active-bid re-derivation during
// auction-cancel and accept-trade reverts.
type History interface {
	FindByID(id string) (*types.Transaction, error)
	FindByIDs(ids []string) ([]*types.Transaction, error)
	Stream(f Filter, fn func(*types.Transaction) error) error
}

// PoolQuery exposes the not-yet-confirmed transactions visible to pool
// admission checks. Implementations must be safe for concurrent use.
type PoolQuery interface {
	PendingFrom(senderPublicKey string, kind types.TxKind) []*types.Transaction
}

// Handler is the per-transaction-kind state transition contract. Validation
// (CheckApplicable, CheckPool) is read-only; Apply and Revert are exact
// inverses of each other; Bootstrap replays confirmed history without
// re-running validation.
type Handler interface {
	Kind() types.TxKind
	Dependencies() []types.TxKind
	Bootstrap() error
	CheckApplicable(tx *types.Transaction, sender *types.Account) error
	Apply(tx *types.Transaction) error
	Revert(tx *types.Transaction) error
	CheckPool(tx *types.Transaction, pool PoolQuery) error
}
