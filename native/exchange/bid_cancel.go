package exchange

import (
	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// BidCancelHandler refunds a single bid. Only the account that placed a bid
// may cancel it.
type BidCancelHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	emitter events.Emitter
}

// NewBidCancelHandler constructs the bid cancel handler.
func NewBidCancelHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, emitter events.Emitter) *BidCancelHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &BidCancelHandler{ledger: ledger, index: index, history: history, emitter: emitter}
}

func (h *BidCancelHandler) Kind() types.TxKind { return types.TxKindBidCancel }

// Dependencies orders bid cancellations after bids during replay.
func (h *BidCancelHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindBid}
}

// CheckApplicable verifies the referenced bid exists, belongs to the sender,
// and is still active on an open listing. Cancelling another account's bid
// is a distinct failure from cancelling an already-cancelled bid.
func (h *BidCancelHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.BidCancel
	if asset == nil || asset.BidID == "" {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	bidTx, err := h.history.FindByID(asset.BidID)
	if err != nil || bidTx.Kind != types.TxKindBid {
		return ErrBidNotFound
	}
	if bidTx.SenderPublicKey != tx.SenderPublicKey {
		return ErrCannotCancelForeign
	}
	auction, _, err := h.listingOf(bidTx)
	if err != nil {
		return err
	}
	if !auction.HasBid(asset.BidID) {
		return ErrBidClosed
	}
	return nil
}

// Apply credits the bidder back and removes the bid from the listing's
// active list and the bid index.
func (h *BidCancelHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	bidTx, err := h.history.FindByID(tx.Asset.BidCancel.BidID)
	if err != nil {
		return err
	}
	auction, _, err := h.listingOf(bidTx)
	if err != nil {
		return err
	}
	h.withdraw(bidTx, sender, auction)
	h.emitter.Emit(exchangeEvent{evt: NewBidCancelledEvent(bidTx.ID(), auction.ID, sender.Address)})
	return nil
}

// Revert re-debits the bidder and re-appends the bid to the listing.
func (h *BidCancelHandler) Revert(tx *types.Transaction) error {
	asset := tx.Asset.BidCancel
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	bidTx, err := h.history.FindByID(asset.BidID)
	if err != nil {
		return err
	}
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	auction, seller, err := h.listingOf(bidTx)
	if err != nil {
		return err
	}
	amount := bidTx.Asset.Bid.BidAmount
	sender.Debit(amount)
	sender.Lock(amount)
	auction.Bids = append(auction.Bids, bidTx.ID())
	h.index.Set(common.IndexBids, bidTx.ID(), seller)
	return nil
}

// CheckPool rejects a duplicate pending cancel of the same bid from the
// same sender.
func (h *BidCancelHandler) CheckPool(tx *types.Transaction, pool common.PoolQuery) error {
	asset := tx.Asset.BidCancel
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	for _, pending := range pool.PendingFrom(tx.SenderPublicKey, h.Kind()) {
		other := pending.Asset.BidCancel
		if other != nil && other.BidID == asset.BidID {
			return &common.PoolConflictError{Kind: h.Kind(), Key: asset.BidID}
		}
	}
	return nil
}

// Bootstrap replays historical bid cancellations, skipping bids that never
// entered an open listing during replay (their escrow was never applied).
func (h *BidCancelHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		bidTx, err := h.history.FindByID(tx.Asset.BidCancel.BidID)
		if err != nil {
			return err
		}
		auction, _, err := h.listingOf(bidTx)
		if err != nil {
			return nil
		}
		if !auction.HasBid(bidTx.ID()) {
			return nil
		}
		sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
		if err != nil {
			return err
		}
		h.withdraw(bidTx, sender, auction)
		return nil
	})
}

func (h *BidCancelHandler) withdraw(bidTx *types.Transaction, bidder *types.Account, auction *types.Auction) {
	amount := bidTx.Asset.Bid.BidAmount
	bidder.Credit(amount)
	bidder.Unlock(amount)
	auction.RemoveBid(bidTx.ID())
	h.index.Forget(common.IndexBids, bidTx.ID())
}

// listingOf resolves the open listing a bid belongs to, or ErrAuctionClosed
// when it has been cancelled or accepted.
func (h *BidCancelHandler) listingOf(bidTx *types.Transaction) (*types.Auction, *types.Account, error) {
	auctionID := bidTx.Asset.Bid.AuctionID
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
