package state

import (
	"fmt"
	"log/slog"

	"nftchain/core/types"
	"nftchain/native/common"
	"nftchain/native/fees"
	"nftchain/observability/metrics"
)

// Journal records confirmed transactions into the history read model and
// drops them again when a reorg reverts them, keeping the read model an
// exact mirror of confirmed state.
type Journal interface {
	Append(tx *types.Transaction) error
	Remove(id string) error
}

// Processor dispatches confirmed transactions to their handlers in block
// order. Application is strictly single-threaded; determinism of the final
// state depends on this serial order.
type Processor struct {
	handlers map[types.TxKind]common.Handler
	history  Journal
	schedule fees.Schedule
	log      *slog.Logger
}

// NewProcessor wires the handlers, the history journal and the fee policy.
// A nil logger falls back to the default slog logger.
func NewProcessor(handlers []common.Handler, history Journal, schedule fees.Schedule, log *slog.Logger) *Processor {
	byKind := make(map[types.TxKind]common.Handler, len(handlers))
	for _, h := range handlers {
		byKind[h.Kind()] = h
	}
	if log == nil {
		log = slog.Default()
	}
	return &Processor{handlers: byKind, history: history, schedule: schedule, log: log}
}

// Apply validates and applies a confirmed transaction, then appends it to
// the history read model. Any error leaves the ledger untouched.
func (p *Processor) Apply(tx *types.Transaction) error {
	handler, ok := p.handlers[tx.Kind]
	if !ok {
		return fmt.Errorf("processor: no handler for transaction kind %s", tx.Kind)
	}
	if err := p.schedule.Check(tx); err != nil {
		metrics.TxRejected(tx.Kind.String())
		return err
	}
	if err := handler.Apply(tx); err != nil {
		metrics.TxRejected(tx.Kind.String())
		return err
	}
	if p.history != nil {
		if err := p.history.Append(tx); err != nil {
			return err
		}
	}
	metrics.TxApplied(tx.Kind.String())
	p.log.Debug("applied transaction", "kind", tx.Kind.String(), "id", tx.ID())
	return nil
}

// Revert undoes a previously applied transaction during a chain
// reorganization and drops it from the history read model, so later
// bootstrap replays and revert re-scans never see it.
func (p *Processor) Revert(tx *types.Transaction) error {
	handler, ok := p.handlers[tx.Kind]
	if !ok {
		return fmt.Errorf("processor: no handler for transaction kind %s", tx.Kind)
	}
	if err := handler.Revert(tx); err != nil {
		return err
	}
	if p.history != nil {
		if err := p.history.Remove(tx.ID()); err != nil {
			return err
		}
	}
	metrics.TxReverted(tx.Kind.String())
	p.log.Debug("reverted transaction", "kind", tx.Kind.String(), "id", tx.ID())
	return nil
}
