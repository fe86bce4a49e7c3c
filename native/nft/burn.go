package nft

import (
	"fmt"

	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// BurnHandler destroys a token. Burning shrinks both the collection's
// current supply and its maximum supply: a burned slot is gone for good.
type BurnHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	emitter events.Emitter
}

// NewBurnHandler constructs the token burn handler.
func NewBurnHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, emitter events.Emitter) *BurnHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &BurnHandler{ledger: ledger, index: index, history: history, emitter: emitter}
}

func (h *BurnHandler) Kind() types.TxKind { return types.TxKindBurnToken }

// Dependencies orders burns after minting during replay.
func (h *BurnHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindCreateToken}
}

// CheckApplicable verifies ownership and that the token is not escrowed by
// one of the sender's open auctions.
func (h *BurnHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.BurnToken
	if asset == nil || asset.NFTID == "" {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	if !sender.OwnsToken(asset.NFTID) {
		return ErrTokenNotOwned
	}
	if sender.AuctionReferencing(asset.NFTID) != nil {
		return ErrTokenInAuction
	}
	return nil
}

// Apply removes the token from its owner and permanently shrinks the
// collection's supply cap.
func (h *BurnHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	return h.burn(tx, sender, true)
}

// Revert restores token ownership and both supply counters.
func (h *BurnHandler) Revert(tx *types.Transaction) error {
	asset := tx.Asset.BurnToken
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	collection, err := h.collectionOf(asset.NFTID)
	if err != nil {
		return err
	}
	collection.CurrentSupply++
	collection.MaximumSupply++
	sender.AddToken(asset.NFTID)
	h.index.Set(common.IndexTokens, asset.NFTID, sender)
	return nil
}

// CheckPool rejects a second pending burn of the same token from the same
// sender.
func (h *BurnHandler) CheckPool(tx *types.Transaction, pool common.PoolQuery) error {
	asset := tx.Asset.BurnToken
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	for _, pending := range pool.PendingFrom(tx.SenderPublicKey, h.Kind()) {
		other := pending.Asset.BurnToken
		if other != nil && other.NFTID == asset.NFTID {
			return &common.PoolConflictError{Kind: h.Kind(), Key: asset.NFTID}
		}
	}
	return nil
}

// Bootstrap replays historical burns without admission checks.
func (h *BurnHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
		if err != nil {
			return err
		}
		return h.burn(tx, sender, false)
	})
}

func (h *BurnHandler) burn(tx *types.Transaction, sender *types.Account, emit bool) error {
	asset := tx.Asset.BurnToken
	collection, err := h.collectionOf(asset.NFTID)
	if err != nil {
		return err
	}
	collection.CurrentSupply--
	collection.MaximumSupply--
	sender.RemoveToken(asset.NFTID)
	h.index.Forget(common.IndexTokens, asset.NFTID)
	if emit {
		h.emitter.Emit(nftEvent{evt: NewTokenBurnedEvent(asset.NFTID, collection.ID, sender.Address)})
	}
	return nil
}

// collectionOf resolves the collection a token was minted against by looking
// up the token's originating mint transaction.
func (h *BurnHandler) collectionOf(tokenID string) (*types.Collection, error) {
	mintTx, err := h.history.FindByID(tokenID)
	if err != nil {
		return nil, fmt.Errorf("nft: mint transaction for token %s: %w", tokenID, err)
	}
	if mintTx.Asset.CreateToken == nil {
		return nil, fmt.Errorf("nft: transaction %s is not a mint", tokenID)
	}
	collectionID := mintTx.Asset.CreateToken.CollectionID
	genesis, ok := h.index.Get(common.IndexCollections, collectionID)
	if !ok {
		return nil, ErrCollectionNotFound
	}
	collection, ok := genesis.Collections[collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return collection, nil
}
