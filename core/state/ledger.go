package state

import (
	"fmt"
	"sync"

	"nftchain/core/types"
)

// Manager is the in-memory reference implementation of the account ledger
// and the secondary index registry. Confirmed-transaction application is
// strictly sequential, but index reads also serve concurrent pool admission
// checks, so access is guarded by a read/write mutex.
type Manager struct {
	mu          sync.RWMutex
	byAddress   map[string]*types.Account
	byPublicKey map[string]*types.Account
	indexes     map[string]map[string]*types.Account
}

// NewManager constructs an empty ledger manager.
func NewManager() *Manager {
	return &Manager{
		byAddress:   make(map[string]*types.Account),
		byPublicKey: make(map[string]*types.Account),
		indexes:     make(map[string]map[string]*types.Account),
	}
}

// ByPublicKey returns the account for the public key, creating it on first
// use with an address derived from the key.
func (m *Manager) ByPublicKey(publicKey string) (*types.Account, error) {
	if publicKey == "" {
		return nil, fmt.Errorf("ledger: empty public key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.byPublicKey[publicKey]; ok {
		return acc, nil
	}
	acc := types.NewAccount(types.DeriveAddress(publicKey), publicKey)
	m.byPublicKey[publicKey] = acc
	m.byAddress[acc.Address] = acc
	return acc, nil
}

// ByAddress returns the account for the address, creating an account with an
// unknown public key if none exists yet. Recipients may receive tokens
// before they ever sign a transaction themselves.
func (m *Manager) ByAddress(address string) (*types.Account, error) {
	if address == "" {
		return nil, fmt.Errorf("ledger: empty address")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.byAddress[address]; ok {
		return acc, nil
	}
	acc := types.NewAccount(address, "")
	m.byAddress[address] = acc
	return acc, nil
}

// Set records key → account under the named index.
func (m *Manager) Set(index, key string, acc *types.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.indexes[index]
	if !ok {
		bucket = make(map[string]*types.Account)
		m.indexes[index] = bucket
	}
	bucket[key] = acc
}

// Get resolves key under the named index.
func (m *Manager) Get(index, key string) (*types.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.indexes[index]
	if !ok {
		return nil, false
	}
	acc, ok := bucket[key]
	return acc, ok
}

// Forget removes key from the named index.
func (m *Manager) Forget(index, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bucket, ok := m.indexes[index]; ok {
		delete(bucket, key)
	}
}
