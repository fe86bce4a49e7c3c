package nft

import (
	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// TransferHandler moves tokens between accounts. Tokens escrowed by one of
// the sender's open auctions are immutable until the auction resolves.
type TransferHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	emitter events.Emitter
}

// NewTransferHandler constructs the token transfer handler.
func NewTransferHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, emitter events.Emitter) *TransferHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &TransferHandler{ledger: ledger, index: index, history: history, emitter: emitter}
}

func (h *TransferHandler) Kind() types.TxKind { return types.TxKindTransferToken }

// Dependencies orders transfers after minting during replay.
func (h *TransferHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindCreateToken}
}

// CheckApplicable verifies the sender owns every requested token and that
// none of them sits inside one of the sender's open auctions.
func (h *TransferHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.TransferToken
	if asset == nil || len(asset.NFTIDs) == 0 {
		return &common.MalformedAssetError{Kind: tx.Kind}
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

// Apply moves every token to the recipient and re-indexes each one.
// Self-transfer is legal: ownership is unchanged but the index entry is
// rewritten.
func (h *TransferHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	asset := tx.Asset.TransferToken
	recipient, err := h.ledger.ByAddress(asset.RecipientID)
	if err != nil {
		return err
	}
	h.move(asset.NFTIDs, sender, recipient)
	h.emitter.Emit(nftEvent{evt: NewTokenTransferredEvent(asset.NFTIDs, sender.Address, recipient.Address)})
	return nil
}

// Revert moves every token back to the sender.
func (h *TransferHandler) Revert(tx *types.Transaction) error {
	asset := tx.Asset.TransferToken
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	recipient, err := h.ledger.ByAddress(asset.RecipientID)
	if err != nil {
		return err
	}
	h.move(asset.NFTIDs, recipient, sender)
	return nil
}

// CheckPool rejects a second pending transfer from the same sender sharing
// any token id with an already-pending transfer.
func (h *TransferHandler) CheckPool(tx *types.Transaction, pool common.PoolQuery) error {
	asset := tx.Asset.TransferToken
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	for _, pending := range pool.PendingFrom(tx.SenderPublicKey, h.Kind()) {
		other := pending.Asset.TransferToken
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

// Bootstrap replays historical transfers without admission checks.
func (h *TransferHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
		if err != nil {
			return err
		}
		recipient, err := h.ledger.ByAddress(tx.Asset.TransferToken.RecipientID)
		if err != nil {
			return err
		}
		h.move(tx.Asset.TransferToken.NFTIDs, sender, recipient)
		return nil
	})
}

func (h *TransferHandler) move(tokenIDs []string, from, to *types.Account) {
	for _, tokenID := range tokenIDs {
		MoveToken(h.index, from, to, tokenID)
	}
}

// MoveToken reassigns token ownership and rewrites the token index in one
// step, so the attribute mutation can never be separated from the re-index.
// Shared with the accept-trade settlement.
func MoveToken(index common.IndexRegistry, from, to *types.Account, tokenID string) {
	from.RemoveToken(tokenID)
	to.AddToken(tokenID)
	index.Set(common.IndexTokens, tokenID, to)
}
