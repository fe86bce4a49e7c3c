package nft

import (
	"fmt"

	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// CreateHandler mints tokens against registered collections. The minted
// token's id is the minting transaction's id.
type CreateHandler struct {
	ledger  common.Ledger
	index   common.IndexRegistry
	history common.History
	schemas *SchemaCache
	emitter events.Emitter
}

// NewCreateHandler constructs the token mint handler.
func NewCreateHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, schemas *SchemaCache, emitter events.Emitter) *CreateHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if schemas == nil {
		schemas = NewSchemaCache()
	}
	return &CreateHandler{ledger: ledger, index: index, history: history, schemas: schemas, emitter: emitter}
}

func (h *CreateHandler) Kind() types.TxKind { return types.TxKindCreateToken }

// Dependencies orders minting after collection registration during replay.
func (h *CreateHandler) Dependencies() []types.TxKind {
	return []types.TxKind{types.TxKindRegisterCollection}
}

// CheckApplicable validates the mint against the collection: issuer
// allow-list, fixed metadata, schema conformance and the supply cap.
func (h *CreateHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.CreateToken
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	collection, _, err := h.resolveCollection(asset.CollectionID)
	if err != nil {
		return err
	}
	if !collection.IssuerAllowed(sender.PublicKey) {
		return ErrIssuerNotAllowed
	}
	if len(collection.Metadata) > 0 && !jsonEqual(collection.Metadata, asset.Attributes) {
		return ErrMetadataMismatch
	}
	if err := h.schemas.Validate(collection.ID, collection.JSONSchema, asset.Attributes); err != nil {
		return err
	}
	if collection.CurrentSupply >= collection.MaximumSupply {
		return ErrSupplyExhausted
	}
	return nil
}

// Apply increments the collection supply and assigns the token to the
// recipient (the sender when no explicit recipient is named).
func (h *CreateHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	return h.mint(tx, sender, true)
}

// Revert decrements the supply and removes the token from the recipient.
func (h *CreateHandler) Revert(tx *types.Transaction) error {
	asset := tx.Asset.CreateToken
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	collection, _, err := h.resolveCollection(asset.CollectionID)
	if err != nil {
		return err
	}
	collection.CurrentSupply--
	recipient, err := h.recipient(tx)
	if err != nil {
		return err
	}
	recipient.RemoveToken(tx.ID())
	h.index.Forget(common.IndexTokens, tx.ID())
	return nil
}

// CheckPool imposes no queue-level constraint on minting.
func (h *CreateHandler) CheckPool(*types.Transaction, common.PoolQuery) error { return nil }

// Bootstrap replays historical mints without admission checks.
func (h *CreateHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
		if err != nil {
			return err
		}
		return h.mint(tx, sender, false)
	})
}

func (h *CreateHandler) mint(tx *types.Transaction, sender *types.Account, emit bool) error {
	asset := tx.Asset.CreateToken
	collection, _, err := h.resolveCollection(asset.CollectionID)
	if err != nil {
		return err
	}
	collection.CurrentSupply++
	recipient, err := h.recipient(tx)
	if err != nil {
		return err
	}
	recipient.AddToken(tx.ID())
	h.index.Set(common.IndexTokens, tx.ID(), recipient)
	if emit {
		h.emitter.Emit(nftEvent{evt: NewTokenCreatedEvent(tx.ID(), collection.ID, recipient.Address)})
	}
	return nil
}

func (h *CreateHandler) recipient(tx *types.Transaction) (*types.Account, error) {
	asset := tx.Asset.CreateToken
	if asset.RecipientID != "" {
		return h.ledger.ByAddress(asset.RecipientID)
	}
	return h.ledger.ByPublicKey(tx.SenderPublicKey)
}

func (h *CreateHandler) resolveCollection(collectionID string) (*types.Collection, *types.Account, error) {
	genesis, ok := h.index.Get(common.IndexCollections, collectionID)
	if !ok {
		return nil, nil, ErrCollectionNotFound
	}
	collection, ok := genesis.Collections[collectionID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: index points at account without the collection", ErrCollectionNotFound)
	}
	return collection, genesis, nil
}
