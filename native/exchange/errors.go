package exchange

import "errors"

var (
	// ownership failures
	ErrNoTokens            = errors.New("exchange: sender owns no tokens")
	ErrTokenNotOwned       = errors.New("exchange: sender does not own the token")
	ErrAuctionNotOwned     = errors.New("exchange: sender does not own the auction")
	ErrCannotCancelForeign = errors.New("exchange: a bid can only be cancelled by the account that placed it")

	// lifecycle failures
	ErrAuctionNotFound = errors.New("exchange: auction transaction does not exist")
	ErrAuctionClosed   = errors.New("exchange: auction is no longer open")
	ErrAuctionExpired  = errors.New("exchange: auction expiration height reached")
	ErrBidNotFound     = errors.New("exchange: bid transaction does not exist")
	ErrBidClosed       = errors.New("exchange: bid is no longer active")
	ErrTokenInAuction  = errors.New("exchange: token is already escrowed by an open auction")

	// economic failures
	ErrInsufficientBalance = errors.New("exchange: bidder balance below bid amount")
	ErrBidTooLow           = errors.New("exchange: bid amount below auction start amount")
)
