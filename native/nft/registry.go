package nft

import (
	"nftchain/core/events"
	"nftchain/core/types"
	"nftchain/native/common"
)

// RegistryHandler creates and destroys named token schemas owned by an
// account. An optional allow-list restricts who may register collections.
type RegistryHandler struct {
	ledger       common.Ledger
	index        common.IndexRegistry
	history      common.History
	emitter      events.Emitter
	registrators []string
}

// NewRegistryHandler constructs the collection registry handler. An empty
// registrators list leaves registration open to any account.
func NewRegistryHandler(ledger common.Ledger, index common.IndexRegistry, history common.History, emitter events.Emitter, registrators []string) *RegistryHandler {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &RegistryHandler{
		ledger:       ledger,
		index:        index,
		history:      history,
		emitter:      emitter,
		registrators: append([]string(nil), registrators...),
	}
}

func (h *RegistryHandler) Kind() types.TxKind           { return types.TxKindRegisterCollection }
func (h *RegistryHandler) Dependencies() []types.TxKind { return nil }

// CheckApplicable validates the attached schema and the sender's
// authorization. It performs no mutation.
func (h *RegistryHandler) CheckApplicable(tx *types.Transaction, sender *types.Account) error {
	asset := tx.Asset.RegisterCollection
	if asset == nil {
		return &common.MalformedAssetError{Kind: tx.Kind}
	}
	if err := CheckSchema(asset.JSONSchema); err != nil {
		return err
	}
	if len(h.registrators) > 0 && !contains(h.registrators, sender.PublicKey) {
		return ErrUnauthorizedRegistrator
	}
	return nil
}

// Apply creates the collection under the sender account and indexes it.
func (h *RegistryHandler) Apply(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	if err := h.CheckApplicable(tx, sender); err != nil {
		return err
	}
	collection := h.register(tx, sender)
	h.emitter.Emit(nftEvent{evt: NewCollectionRegisteredEvent(collection, sender.Address)})
	return nil
}

// Revert deletes the collection entry and its index record.
func (h *RegistryHandler) Revert(tx *types.Transaction) error {
	sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
	if err != nil {
		return err
	}
	delete(sender.Collections, tx.ID())
	h.index.Forget(common.IndexCollections, tx.ID())
	return nil
}

// CheckPool imposes no queue-level constraint on collection registration.
func (h *RegistryHandler) CheckPool(*types.Transaction, common.PoolQuery) error { return nil }

// Bootstrap replays historical registrations without admission checks.
func (h *RegistryHandler) Bootstrap() error {
	return h.history.Stream(common.Filter{Kind: h.Kind()}, func(tx *types.Transaction) error {
		sender, err := h.ledger.ByPublicKey(tx.SenderPublicKey)
		if err != nil {
			return err
		}
		h.register(tx, sender)
		return nil
	})
}

func (h *RegistryHandler) register(tx *types.Transaction, sender *types.Account) *types.Collection {
	asset := tx.Asset.RegisterCollection
	collection := &types.Collection{
		ID:             tx.ID(),
		Name:           asset.Name,
		Description:    asset.Description,
		MaximumSupply:  asset.MaximumSupply,
		CurrentSupply:  0,
		JSONSchema:     asset.JSONSchema,
		AllowedIssuers: append([]string(nil), asset.AllowedIssuers...),
		Metadata:       asset.Metadata,
	}
	sender.SetCollection(collection)
	h.index.Set(common.IndexCollections, collection.ID, sender)
	return collection
}

func contains(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}
