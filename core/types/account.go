package types

import (
	"encoding/json"
	"math/big"
)

// Collection is a named, schema-constrained class of tokens with a supply
// cap, owned by the account that registered it.
type Collection struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	MaximumSupply  uint64          `json:"maximumSupply"`
	CurrentSupply  uint64          `json:"currentSupply"`
	JSONSchema     json.RawMessage `json:"jsonSchema"`
	AllowedIssuers []string        `json:"allowedIssuers,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// Clone returns a deep copy so callers can mutate safely.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	clone := *c
	clone.JSONSchema = append(json.RawMessage(nil), c.JSONSchema...)
	clone.Metadata = append(json.RawMessage(nil), c.Metadata...)
	clone.AllowedIssuers = append([]string(nil), c.AllowedIssuers...)
	return &clone
}

// IssuerAllowed reports whether the public key may mint against this
// collection. An empty allow-list means minting is open to everyone.
func (c *Collection) IssuerAllowed(publicKey string) bool {
	if len(c.AllowedIssuers) == 0 {
		return true
	}
	for _, issuer := range c.AllowedIssuers {
		if issuer == publicKey {
			return true
		}
	}
	return false
}

// Auction is an open listing held by the seller account. Bids holds the ids
// of the currently active (not cancelled, not accepted) bid transactions.
type Auction struct {
	ID               string   `json:"id"`
	NFTIDs           []string `json:"nftIds"`
	StartAmount      *big.Int `json:"startAmount"`
	ExpirationHeight uint64   `json:"expirationHeight"`
	Bids             []string `json:"bids"`
}

// Clone returns a deep copy of the auction.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	clone.NFTIDs = append([]string(nil), a.NFTIDs...)
	clone.Bids = append([]string(nil), a.Bids...)
	if a.StartAmount != nil {
		clone.StartAmount = new(big.Int).Set(a.StartAmount)
	}
	return &clone
}

// HasBid reports whether the bid id is in the active bid list.
func (a *Auction) HasBid(bidID string) bool {
	for _, id := range a.Bids {
		if id == bidID {
			return true
		}
	}
	return false
}

// RemoveBid deletes the bid id from the active list, preserving order.
func (a *Auction) RemoveBid(bidID string) {
	for i, id := range a.Bids {
		if id == bidID {
			a.Bids = append(a.Bids[:i], a.Bids[i+1:]...)
			return
		}
	}
}

// ReferencesToken reports whether the listing escrows the given token.
func (a *Auction) ReferencesToken(tokenID string) bool {
	for _, id := range a.NFTIDs {
		if id == tokenID {
			return true
		}
	}
	return false
}

// Account is a ledger entity identified by address and public key. The
// marketplace state it carries is strongly typed: collections it registered,
// tokens it owns, listings it opened, and the sum of its outstanding bid
// escrows.
type Account struct {
	Address       string                 `json:"address"`
	PublicKey     string                 `json:"publicKey"`
	Balance       *big.Int               `json:"balance"`
	LockedBalance *big.Int               `json:"lockedBalance"`
	Collections   map[string]*Collection `json:"collections,omitempty"`
	Tokens        map[string]struct{}    `json:"tokens,omitempty"`
	Auctions      map[string]*Auction    `json:"auctions,omitempty"`
}

// NewAccount constructs an empty account with zeroed balances.
func NewAccount(address, publicKey string) *Account {
	return &Account{
		Address:       address,
		PublicKey:     publicKey,
		Balance:       big.NewInt(0),
		LockedBalance: big.NewInt(0),
	}
}

// HasTokens reports whether the account owns any token at all.
func (a *Account) HasTokens() bool { return len(a.Tokens) > 0 }

// OwnsToken reports whether the account owns the given token.
func (a *Account) OwnsToken(tokenID string) bool {
	_, ok := a.Tokens[tokenID]
	return ok
}

// HasAuctions reports whether the account holds any open listing.
func (a *Account) HasAuctions() bool { return len(a.Auctions) > 0 }

// AuctionReferencing returns the open listing escrowing the token, or nil.
func (a *Account) AuctionReferencing(tokenID string) *Auction {
	for _, auction := range a.Auctions {
		if auction.ReferencesToken(tokenID) {
			return auction
		}
	}
	return nil
}

// AddToken records ownership of the token.
func (a *Account) AddToken(tokenID string) {
	if a.Tokens == nil {
		a.Tokens = make(map[string]struct{})
	}
	a.Tokens[tokenID] = struct{}{}
}

// RemoveToken drops ownership of the token.
func (a *Account) RemoveToken(tokenID string) {
	delete(a.Tokens, tokenID)
}

// SetCollection stores a collection under the account.
func (a *Account) SetCollection(c *Collection) {
	if a.Collections == nil {
		a.Collections = make(map[string]*Collection)
	}
	a.Collections[c.ID] = c
}

// SetAuction stores an open listing under the account.
func (a *Account) SetAuction(auction *Auction) {
	if a.Auctions == nil {
		a.Auctions = make(map[string]*Auction)
	}
	a.Auctions[auction.ID] = auction
}

// Credit adds amount to the spendable balance.
func (a *Account) Credit(amount *big.Int) {
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	a.Balance = new(big.Int).Add(a.Balance, amount)
}

// Debit removes amount from the spendable balance.
func (a *Account) Debit(amount *big.Int) {
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	a.Balance = new(big.Int).Sub(a.Balance, amount)
}

// Lock increases the outstanding bid escrow bookkeeping.
func (a *Account) Lock(amount *big.Int) {
	if a.LockedBalance == nil {
		a.LockedBalance = big.NewInt(0)
	}
	a.LockedBalance = new(big.Int).Add(a.LockedBalance, amount)
}

// Unlock decreases the outstanding bid escrow bookkeeping.
func (a *Account) Unlock(amount *big.Int) {
	if a.LockedBalance == nil {
		a.LockedBalance = big.NewInt(0)
	}
	a.LockedBalance = new(big.Int).Sub(a.LockedBalance, amount)
}
