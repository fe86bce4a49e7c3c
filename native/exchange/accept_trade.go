package exchange

import (
	"math/big"

	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
	"nftchain/native/nft"
)

// AcceptTradeHandler atomically finalizes a listing: the listed tokens move
// to the winning bidder, the seller is credited with the winning amount, and
// every losing bid is refunded.
type AcceptTradeHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	emitter events.Emitter
}

// NewAcceptTradeHandler constructs the settlement handler.
func NewAcceptTradeHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, emitter events.Emitter) *AcceptTradeHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &AcceptTradeHandler{ledger: ledger, index: index, history: history, emitter: emitter}
}

func (h *AcceptTradeHandler) Kind() types.TxKind { return types.TxKindAcceptTrade }

// Dependencies order settlements after bids and bid cancellations during
// replay, so the active bid lists are complete when settlements re-run.
func (h *AcceptTradeHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindBid, types.TxKindBidCancel}
}

// CheckApplicable verifies the seller owns the named open listing and that
// the named bid is still active on it.
func (h *AcceptTradeHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.AcceptTrade
	if asset == nil || asset.AuctionID == "" || asset.BidID == "" {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	if !sender.HasAuctions() {
		return ErrAuctionNotOwned
	}
	bidTx, err := h.history.FindByID(asset.BidID)
	if err != nil || bidTx.Kind != types.TxKindBid {
		return ErrBidNotFound
	}
	auctionTx, err := h.history.FindByID(asset.AuctionID)
	if err != nil || auctionTx.Kind != types.TxKindAuction {
		return ErrAuctionNotFound
	}
	auction, ok := sender.Auctions[asset.AuctionID]
	if !ok {
		return ErrAuctionClosed
	}
	if !auction.HasBid(asset.BidID) {
		return ErrBidClosed
	}
	return nil
}

// Apply settles the listing: refund every losing bid, consume the winner's
// escrow, credit the seller, move the tokens, and drop the listing.
func (h *AcceptTradeHandler) Apply(tx *types.Transaction) error {
	seller, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, seller); err != nil {
		return err
	}
	asset := tx.Asset.AcceptTrade
	winner, amount, err := h.settle(tx, seller, seller.Auctions[asset.AuctionID])
	if err != nil {
		return err
	}
	h.emitter.Emit(exchangeEvent{evt: NewTradeAcceptedEvent(asset.AuctionID, asset.BidID, seller.Address, winner.Address, amount.String())})
	return nil
}

// settle finalizes the listing: refund every losing bid, consume the
// winner's escrow, credit the seller, move the tokens, and drop the listing
// with its bid indexes. Shared between apply and bootstrap replay.
func (h *AcceptTradeHandler) settle(tx *types.Transaction, seller *types.Account, auction *types.Auction) (*types.Account, *big.Int, error) {
	asset := tx.Asset.AcceptTrade
	winningBidTx, err := h.history.FindByID(asset.BidID)
	if err != nil {
		return nil, nil, err
	}
	winner, err := h.ledger.ByPublicKey(winningBidTx.SenderPublicKey)
	if err != nil {
		return nil, nil, err
	}
	amount := winningBidTx.Asset.Bid.BidAmount

	for _, bidID := range auction.Bids {
		if bidID == asset.BidID {
			continue
		}
		losingBidTx, err := h.history.FindByID(bidID)
		if err != nil {
			return nil, nil, err
		}
		loser, err := h.ledger.ByPublicKey(losingBidTx.SenderPublicKey)
		if err != nil {
			return nil, nil, err
		}
		refund := losingBidTx.Asset.Bid.BidAmount
		loser.Credit(refund)
		loser.Unlock(refund)
	}
	for _, bidID := range auction.Bids {
		h.index.Forget(common.IndexBids, bidID)
	}

	winner.Unlock(amount)
	seller.Credit(amount)
	for _, tokenID := range auction.NFTIDs {
		nft.MoveToken(h.index, seller, winner, tokenID)
	}
	delete(seller.Auctions, asset.AuctionID)
	h.index.Forget(common.IndexAuctions, asset.AuctionID)
	return winner, amount, nil
}

// Revert is the exact inverse: tokens return to the seller, the winning
// amount is debited back, the still-valid losing bids are re-debited and
// re-locked, and the listing is reconstructed with its active bid list.
func (h *AcceptTradeHandler) Revert(tx *types.Transaction) error {
	asset := tx.Asset.AcceptTrade
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	seller, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	winningBidTx, err := h.history.FindByID(asset.BidID)
	if err != nil {
		return err
	}
	winner, err := h.ledger.ByPublicKey(winningBidTx.SenderPublicKey)
	if err != nil {
		return err
	}
	amount := winningBidTx.Asset.Bid.BidAmount

	auctionTx, err := h.history.FindByID(asset.AuctionID)
	if err != nil {
		return err
	}
	surviving, err := activeBids(h.history, asset.AuctionID)
	if err != nil {
		return err
	}
	bidIDs := make([]string, 0, len(surviving))
	for _, bidTx := range surviving {
		bidIDs = append(bidIDs, bidTx.ID())
		if bidTx.ID() == asset.BidID {
			continue
		}
		loser, err := h.ledger.ByPublicKey(bidTx.SenderPublicKey)
		if err != nil {
			return err
		}
		refund := bidTx.Asset.Bid.BidAmount
		loser.Debit(refund)
		loser.Lock(refund)
	}

	auction, err := auctionFromTx(auctionTx, bidIDs)
	if err != nil {
		return err
	}
	for _, tokenID := range auction.NFTIDs {
		nft.MoveToken(h.index, winner, seller, tokenID)
	}
	seller.Debit(amount)
	winner.Lock(amount)
	seller.SetAuction(auction)
	h.index.Set(common.IndexAuctions, auction.ID, seller)
	for _, bidID := range bidIDs {
		h.index.Set(common.IndexBids, bidID, seller)
	}
	return nil
}

// CheckPool rejects a duplicate pending settlement naming the same
// (auction, bid) pair from the same sender.
func (h *AcceptTradeHandler) CheckPool(tx *types.Transaction, pool common.PoolQuery) error {
	asset := tx.Asset.AcceptTrade
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	for _, pending := range pool.PendingFrom(tx.SenderPublicKey, h.Kind()) {
		other := pending.Asset.AcceptTrade
		if other != nil && other.AuctionID == asset.AuctionID && other.BidID == asset.BidID {
			return &common.PoolConflictError{Kind: h.Kind(), Key: asset.AuctionID + "/" + asset.BidID}
		}
	}
	return nil
}

// Bootstrap replays historical settlements without admission checks. The
// listing and its bids exist at this point because of the declared replay
// order.
func (h *AcceptTradeHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		asset := tx.Asset.AcceptTrade
		seller, ok := h.index.Get(common.IndexAuctions, asset.AuctionID)
		if !ok {
			return nil
		}
		auction, ok := seller.Auctions[asset.AuctionID]
		if !ok || !auction.HasBid(asset.BidID) {
			return nil
		}
		_, _, err := h.settle(tx, seller, auction)
		return err
	})
}
