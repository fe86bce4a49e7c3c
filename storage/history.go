package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"nftchain/core/types"
	"nftchain/native/common"
)

// ErrTxNotFound is returned when the history holds no transaction for an id.
var ErrTxNotFound = errors.New("history: transaction not found")

var (
	txKeyPrefix  = []byte("t/")
	seqKeyPrefix = []byte("s/")
)

// History is the confirmed-transaction read model: an append-only log over a
// key-value backend, addressable by transaction id and streamable in ledger
// order. It backs bootstrap replay and the revert-time re-derivation of
// active bid sets.
type History struct {
	db  Database
	mu  sync.Mutex
	seq uint64
}

// NewHistory opens the read model over the given backend, recovering the
// append sequence from existing entries. Removals leave gaps, so the next
// sequence number is one past the highest recorded key, not the entry count.
func NewHistory(db Database) (*History, error) {
	h := &History{db: db}
	err := db.Iterate(seqKeyPrefix, func(key, value []byte) error {
		n, err := strconv.ParseUint(string(key[len(seqKeyPrefix):]), 10, 64)
		if err != nil {
			return fmt.Errorf("history: malformed sequence key %q: %w", key, err)
		}
		h.seq = n + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

type txRecord struct {
	ID string             `json:"id"`
	Tx *types.Transaction `json:"tx"`
}

// Append records a confirmed transaction in ledger order.
func (h *History) Append(tx *types.Transaction) error {
	if tx == nil {
		return fmt.Errorf("history: nil transaction")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	id := tx.ID()
	raw, err := json.Marshal(txRecord{ID: id, Tx: tx})
	if err != nil {
		return err
	}
	if err := h.db.Put(txKey(id), raw); err != nil {
		return err
	}
	if err := h.db.Put(seqKey(h.seq), []byte(id)); err != nil {
		return err
	}
	h.seq++
	return nil
}

// Remove drops a transaction from the log after a reorg reverts it. The
// history must only describe confirmed state: bootstrap replay and the
// revert-time bid re-derivations both scan it, so a reverted transaction
// left behind would resurrect its effects.
func (h *History) Remove(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.db.Delete(txKey(id)); err != nil {
		return err
	}
	var stale [][]byte
	err := h.db.Iterate(seqKeyPrefix, func(key, value []byte) error {
		if string(value) == id {
			stale = append(stale, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range stale {
		if err := h.db.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// FindByID resolves a confirmed transaction by id.
func (h *History) FindByID(id string) (*types.Transaction, error) {
	raw, err := h.db.Get(txKey(id))
	if err != nil {
		return nil, ErrTxNotFound
	}
	var rec txRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec.Tx, nil
}

// FindByIDs resolves a batch of confirmed transactions. Missing ids fail the
// whole lookup: callers pass ids taken from ledger state, so a gap means a
// corrupted read model.
func (h *History) FindByIDs(ids []string) ([]*types.Transaction, error) {
	txs := make([]*types.Transaction, 0, len(ids))
	for _, id := range ids {
		tx, err := h.FindByID(id)
		if err != nil {
			return nil, fmt.Errorf("history: id %s: %w", id, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Stream visits confirmed transactions matching the filter in ledger order.
func (h *History) Stream(f common.Filter, fn func(*types.Transaction) error) error {
	return h.db.Iterate(seqKeyPrefix, func(key, value []byte) error {
		tx, err := h.FindByID(string(value))
		if err != nil {
			return err
		}
		if !matches(f, tx) {
			return nil
		}
		return fn(tx)
	})
}

func matches(f common.Filter, tx *types.Transaction) bool {
	if f.Kind != 0 && tx.Kind != f.Kind {
		return false
	}
	if f.AuctionID != "" && tx.Asset.AuctionReference() != f.AuctionID {
		return false
	}
	if len(f.BidIDs) > 0 {
		ref := tx.Asset.BidReference()
		found := false
		for _, id := range f.BidIDs {
			if id == ref {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func txKey(id string) []byte {
	return append(append([]byte(nil), txKeyPrefix...), id...)
}

func seqKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", seqKeyPrefix, seq))
}
