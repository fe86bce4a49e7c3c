package common

import (
	"fmt"

	"nftchain/core/types"
)

// PoolConflictError signals that an equivalent pending transaction already
// occupies the same resource key. Callers can distinguish it from a
// validation failure: the transaction may succeed once the conflicting one
// leaves the pool.
type PoolConflictError struct {
	Kind types.TxKind
	Key  string
}

func (e *PoolConflictError) Error() string {
	return fmt.Sprintf("pool conflict: a pending %s transaction already locks %q", e.Kind, e.Key)
}

// MalformedAssetError signals a transaction whose asset sub-object for its
// kind is missing or structurally unusable. It fails fast before any state
// is read.
type MalformedAssetError struct {
	Kind types.TxKind
}

func (e *MalformedAssetError) Error() string {
	return fmt.Sprintf("malformed transaction: missing %s asset", e.Kind)
}
