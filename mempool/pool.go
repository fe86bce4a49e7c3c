package mempool

import (
	"errors"
	"fmt"
	"sync"

	"nftchain/core/types"
	"nftchain/native/common"
	"nftchain/observability/metrics"
)

// Pool is the shared queue of not-yet-confirmed transactions. Admission
// checks run concurrently with candidates arriving from the network, so all
// access goes through a read/write mutex; a conflict is an immediate
// rejection, never a retry.
type Pool struct {
	mu       sync.RWMutex
	byID     map[string]*types.Transaction
	bySender map[string][]*types.Transaction
}

// NewPool constructs an empty pending pool.
func NewPool() *Pool {
	return &Pool{
		byID:     make(map[string]*types.Transaction),
		bySender: make(map[string][]*types.Transaction),
	}
}

// PendingFrom returns the queued transactions of the given kind from the
// sender. The slice is a snapshot and safe to range over.
func (p *Pool) PendingFrom(senderPublicKey string, kind types.TxKind) []*types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*types.Transaction
	for _, tx := range p.bySender[senderPublicKey] {
		if tx.Kind == kind {
			out = append(out, tx)
		}
	}
	return out
}

// Contains reports whether the transaction id is queued.
func (p *Pool) Contains(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byID[id]
	return ok
}

// Size reports the number of queued transactions.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

func (p *Pool) add(tx *types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := tx.ID()
	if _, ok := p.byID[id]; ok {
		return
	}
	p.byID[id] = tx
	p.bySender[tx.SenderPublicKey] = append(p.bySender[tx.SenderPublicKey], tx)
}

// Remove drops a transaction from the queue, typically after block
// inclusion or expiry.
func (p *Pool) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx, ok := p.byID[id]
	if !ok {
		return
	}
	delete(p.byID, id)
	queue := p.bySender[tx.SenderPublicKey]
	for i, pending := range queue {
		if pending.ID() == id {
			p.bySender[tx.SenderPublicKey] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	if len(p.bySender[tx.SenderPublicKey]) == 0 {
		delete(p.bySender, tx.SenderPublicKey)
	}
}

// Guard is the pool admission gate: it consults the per-kind handler
// predicate before a transaction may sit in the queue.
type Guard struct {
	pool     *Pool
	handlers map[types.TxKind]common.Handler
}

// NewGuard constructs an admission guard over the pool for the given
// handlers.
func NewGuard(pool *Pool, handlers []common.Handler) *Guard {
	byKind := make(map[types.TxKind]common.Handler, len(handlers))
	for _, h := range handlers {
		byKind[h.Kind()] = h
	}
	return &Guard{pool: pool, handlers: byKind}
}

// Admit runs the handler's pool predicate and, on success, queues the
// transaction. A PoolConflictError means an equivalent pending transaction
// already occupies the same resource key.
func (g *Guard) Admit(tx *types.Transaction) error {
	handler, ok := g.handlers[tx.Kind]
	if !ok {
		return fmt.Errorf("mempool: no handler for transaction kind %s", tx.Kind)
	}
	if err := handler.CheckPool(tx, g.pool); err != nil {
		var conflict *common.PoolConflictError
		if errors.As(err, &conflict) {
			metrics.PoolConflict(tx.Kind.String())
		}
		return err
	}
	g.pool.add(tx)
	return nil
}
