package exchange

import (
	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// AuctionCancelHandler releases a listing and refunds every bid escrowed
// against it.
type AuctionCancelHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	emitter events.Emitter
}

// NewAuctionCancelHandler constructs the listing cancel handler.
func NewAuctionCancelHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, emitter events.Emitter) *AuctionCancelHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &AuctionCancelHandler{ledger: ledger, index: index, history: history, emitter: emitter}
}

func (h *AuctionCancelHandler) Kind() types.TxKind { return types.TxKindAuctionCancel }

// Dependencies orders cancellations after listings during replay.
func (h *AuctionCancelHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindAuction}
}

// CheckApplicable verifies the sender owns the named open listing.
func (h *AuctionCancelHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.AuctionCancel
	if asset == nil || asset.AuctionID == "" {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	if !sender.HasAuctions() {
		return ErrAuctionNotOwned
	}
	if _, ok := sender.Auctions[asset.AuctionID]; !ok {
		return ErrAuctionNotOwned
	}
	return nil
}

// Apply refunds every escrowed bid, then deletes the listing and its index
// record.
func (h *AuctionCancelHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	asset := tx.Asset.AuctionCancel
	auction := sender.Auctions[asset.AuctionID]
	refunded := len(auction.Bids)
	for _, bidID := range auction.Bids {
		bidTx, err := h.history.FindByID(bidID)
		if err != nil {
			return err
		}
		bidder, err := h.ledger.ByPublicKey(bidTx.SenderPublicKey)
		if err != nil {
			return err
		}
		amount := bidTx.Asset.Bid.BidAmount
		bidder.Credit(amount)
		bidder.Unlock(amount)
		h.index.Forget(common.IndexBids, bidID)
	}
	delete(sender.Auctions, asset.AuctionID)
	h.index.Forget(common.IndexAuctions, asset.AuctionID)
	h.emitter.Emit(exchangeEvent{evt: NewAuctionCancelledEvent(asset.AuctionID, sender.Address, refunded)})
	return nil
}

// Revert re-derives the bid set that was active when the listing was
// cancelled, re-debits each surviving bidder, and restores the listing with
// that bid list.
func (h *AuctionCancelHandler) Revert(tx *types.Transaction) error {
	asset := tx.Asset.AuctionCancel
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	surviving, err := activeBids(h.history, asset.AuctionID)
	if err != nil {
		return err
	}
	bidIDs := make([]string, 0, len(surviving))
	for _, bidTx := range surviving {
		bidder, err := h.ledger.ByPublicKey(bidTx.SenderPublicKey)
		if err != nil {
			return err
		}
		amount := bidTx.Asset.Bid.BidAmount
		bidder.Debit(amount)
		bidder.Lock(amount)
		bidIDs = append(bidIDs, bidTx.ID())
	}
	auctionTx, err := h.history.FindByID(asset.AuctionID)
	if err != nil {
		return err
	}
	auction, err := auctionFromTx(auctionTx, bidIDs)
	if err != nil {
		return err
	}
	sender.SetAuction(auction)
	h.index.Set(common.IndexAuctions, auction.ID, sender)
	for _, bidID := range bidIDs {
		h.index.Set(common.IndexBids, bidID, sender)
	}
	return nil
}

// CheckPool rejects a duplicate pending cancel for the same auction from the
// same sender.
func (h *AuctionCancelHandler) CheckPool(tx *types.Transaction, pool common.PoolQuery) error {
	asset := tx.Asset.AuctionCancel
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	for _, pending := range pool.PendingFrom(tx.SenderPublicKey, h.Kind()) {
		other := pending.Asset.AuctionCancel
		if other != nil && other.AuctionID == asset.AuctionID {
			return &common.PoolConflictError{Kind: h.Kind(), Key: asset.AuctionID}
		}
	}
	return nil
}

// Bootstrap drops cancelled listings. Bids bootstrap strictly afterwards and
// skip any bid whose listing no longer exists, so no refund bookkeeping is
// required here.
func (h *AuctionCancelHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		auctionID := tx.Asset.AuctionCancel.AuctionID
		seller, ok := h.index.Get(common.IndexAuctions, auctionID)
		if !ok {
			return nil
		}
		delete(seller.Auctions, auctionID)
		h.index.Forget(common.IndexAuctions, auctionID)
		return nil
	})
}
