package exchange

import (
	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// AuctionHandler escrows tokens into a listing. A token may sit in at most
// one open auction across the whole ledger at a time.
type AuctionHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	chain   common.ChainView
	emitter events.Emitter
}

// NewAuctionHandler constructs the listing handler.
func NewAuctionHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, chain common.ChainView, emitter events.Emitter) *AuctionHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &AuctionHandler{ledger: ledger, index: index, history: history, chain: chain, emitter: emitter}
}

func (h *AuctionHandler) Kind() types.TxKind { return types.TxKindAuction }

// Dependencies orders listings after minting during replay.
func (h *AuctionHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindCreateToken}
}

// CheckApplicable verifies the listing has not already expired and that the
// sender owns every listed token, none of which may sit in another of the
// sender's open auctions.
func (h *AuctionHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.Auction
	if asset == nil || len(asset.NFTIDs) == 0 || asset.StartAmount == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	if h.chain.Height() >= asset.Expiration.BlockHeight {
		return ErrAuctionExpired
	}
	if !sender.HasTokens() {
		return ErrNoTokens
	}
	for _, tokenID := range asset.NFTIDs {
		if !sender.OwnsToken(tokenID) {
			return ErrTokenNotOwned
		}
		if sender.AuctionReferencing(tokenID) != nil {
			return ErrTokenInAuction
		}
	}
	return nil
}

// Apply creates the listing under the sender and indexes it.
func (h *AuctionHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	auction := h.open(tx, sender)
	h.emitter.Emit(exchangeEvent{evt: NewAuctionOpenedEvent(auction, sender.Address)})
	return nil
}

// Revert deletes the listing and its index record.
func (h *AuctionHandler) Revert(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	delete(sender.Auctions, tx.ID())
	h.index.Forget(common.IndexAuctions, tx.ID())
	return nil
}

// CheckPool rejects a second pending listing from the same sender sharing
// any token id with an already-pending one. Pending transfers and burns are
// deliberately not cross-checked here: the apply-time ownership block is the
// authoritative guard.
func (h *AuctionHandler) CheckPool(tx *types.Transaction, pool common.PoolQuery) error {
	asset := tx.Asset.Auction
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	for _, pending := range pool.PendingFrom(tx.SenderPublicKey, h.Kind()) {
		other := pending.Asset.Auction
		if other == nil {
			continue
		}
		for _, tokenID := range asset.NFTIDs {
			for _, pendingID := range other.NFTIDs {
				if tokenID == pendingID {
					return &common.PoolConflictError{Kind: h.Kind(), Key: tokenID}
				}
			}
		}
	}
	return nil
}

// Bootstrap replays historical listings without admission checks.
func (h *AuctionHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
		if err != nil {
			return err
		}
		h.open(tx, sender)
		return nil
	})
}

func (h *AuctionHandler) open(tx *types.Transaction, sender *types.Account) *types.Auction {
	asset := tx.Asset.Auction
	auction := &types.Auction{
		ID:               tx.ID(),
		NFTIDs:           append([]string(nil), asset.NFTIDs...),
		StartAmount:      asset.StartAmount,
		ExpirationHeight: asset.Expiration.BlockHeight,
		Bids:             []string{},
	}
	sender.SetAuction(auction)
	h.index.Set(common.IndexAuctions, auction.ID, sender)
	return auction
}
