package exchange

import (
	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// BidHandler escrows funds against an open listing. The bid amount leaves
// the bidder's spendable balance immediately and stays locked until the bid
// is cancelled, the listing is cancelled, or the trade settles.
type BidHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	chain   common.ChainView
	emitter events.Emitter
}

// NewBidHandler constructs the bid handler.
func NewBidHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, chain common.ChainView, emitter events.Emitter) *BidHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &BidHandler{ledger: ledger, index: index, history: history, chain: chain, emitter: emitter}
}

func (h *BidHandler) Kind() types.TxKind { return types.TxKindBid }

// Dependencies order bids after listings and their cancellations during
// replay, so a bid against a cancelled listing is simply skipped.
func (h *BidHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindAuction, types.TxKindAuctionCancel}
}

// CheckApplicable verifies the listing exists and is still open, has not
// expired, and that the bid clears both the bidder's balance and the
// listing's start amount.
func (h *BidHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.Bid
	if asset == nil || asset.AuctionID == "" || asset.BidAmount == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	auctionTx, err := h.history.FindByID(asset.AuctionID)
	if err != nil || auctionTx.Kind != types.TxKindAuction {
		return ErrAuctionNotFound
	}
	auction, _, err := h.openAuction(asset.AuctionID)
	if err != nil {
		return err
	}
	if h.chain.Height() >= auction.ExpirationHeight {
		return ErrAuctionExpired
	}
	if sender.Balance.Cmp(asset.BidAmount) < 0 {
		return ErrInsufficientBalance
	}
	if asset.BidAmount.Cmp(auction.StartAmount) < 0 {
		return ErrBidTooLow
	}
	return nil
}

// Apply debits the bidder, appends the bid to the listing's active list and
// re-indexes the listing's bids.
func (h *BidHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	asset := tx.Asset.Bid
	auction, seller, err := h.openAuction(asset.AuctionID)
	if err != nil {
		return err
	}
	h.place(tx, sender, seller, auction)
	h.emitter.Emit(exchangeEvent{evt: NewBidPlacedEvent(tx.ID(), auction.ID, sender.Address, asset.BidAmount.String())})
	return nil
}

// Revert credits the bidder back and removes the bid from the listing.
func (h *BidHandler) Revert(tx *types.Transaction) error {
	asset := tx.Asset.Bid
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	auction, _, err := h.openAuction(asset.AuctionID)
	if err != nil {
		return err
	}
	sender.Credit(asset.BidAmount)
	sender.Unlock(asset.BidAmount)
	auction.RemoveBid(tx.ID())
	h.index.Forget(common.IndexBids, tx.ID())
	return nil
}

// CheckPool rejects a second pending bid from the same sender against the
// same listing.
func (h *BidHandler) CheckPool(tx *types.Transaction, pool common.PoolQuery) error {
	asset := tx.Asset.Bid
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	for _, pending := range pool.PendingFrom(tx.SenderPublicKey, h.Kind()) {
		other := pending.Asset.Bid
		if other != nil && other.AuctionID == asset.AuctionID {
			return &common.PoolConflictError{Kind: h.Kind(), Key: asset.AuctionID}
		}
	}
	return nil
}

// Bootstrap replays historical bids. Bids whose listing has since been
// cancelled are skipped: their escrow was refunded, so the net effect on the
// bidder is zero.
func (h *BidHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		auction, seller, err := h.openAuction(tx.Asset.Bid.AuctionID)
		if err != nil {
			return nil
		}
		sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
		if err != nil {
			return err
		}
		h.place(tx, sender, seller, auction)
		return nil
	})
}

func (h *BidHandler) place(tx *types.Transaction, bidder, seller *types.Account, auction *types.Auction) {
	amount := tx.Asset.Bid.BidAmount
	bidder.Debit(amount)
	bidder.Lock(amount)
	auction.Bids = append(auction.Bids, tx.ID())
	h.index.Set(common.IndexBids, tx.ID(), seller)
}

// openAuction resolves the listing and its seller through the auction index.
func (h *BidHandler) openAuction(auctionID string) (*types.Auction, *types.Account, error) {
	seller, ok := h.index.Get(common.IndexAuctions, auctionID)
	if !ok {
		return nil, nil, ErrAuctionClosed
	}
	auction, ok := seller.Auctions[auctionID]
	if !ok {
		return nil, nil, ErrAuctionClosed
	}
	return auction, seller, nil
}
