package fees

import (
	"errors"
	"fmt"
	"math/big"

	"nftchain/core/types"
)

// FeeType selects how the fee for a transaction kind is computed.
type FeeType uint8

const (
	// FeeTypeDynamic prices a transaction by its serialized size.
	FeeTypeDynamic FeeType = iota
	// FeeTypeStatic charges a fixed per-kind constant.
	FeeTypeStatic
	// FeeTypeNone always yields zero.
	FeeTypeNone
)

// ErrStaticFeeMismatch is raised when a transaction declares a fee that does
// not equal the configured static fee for its kind.
var ErrStaticFeeMismatch = errors.New("fees: transaction fee does not match configured static fee")

// Schedule is the fee policy collaborator. It is consulted only for fee
// computation and is orthogonal to state transitions.
type Schedule struct {
	Type       FeeType
	FeePerByte *big.Int
	AddonBytes map[types.TxKind]uint64
	Static     map[types.TxKind]*big.Int
}

// Clone returns a deep copy to avoid aliasing the maps between callers.
func (s Schedule) Clone() Schedule {
	clone := Schedule{Type: s.Type}
	if s.FeePerByte != nil {
		clone.FeePerByte = new(big.Int).Set(s.FeePerByte)
	}
	if len(s.AddonBytes) > 0 {
		clone.AddonBytes = make(map[types.TxKind]uint64, len(s.AddonBytes))
		for k, v := range s.AddonBytes {
			clone.AddonBytes[k] = v
		}
	}
	if len(s.Static) > 0 {
		clone.Static = make(map[types.TxKind]*big.Int, len(s.Static))
		for k, v := range s.Static {
			clone.Static[k] = new(big.Int).Set(v)
		}
	}
	return clone
}

// Compute returns the fee owed by the transaction under this schedule.
// Dynamic fees follow (ceil(serializedSize/2) + addonBytes) × feePerByte.
func (s Schedule) Compute(tx *types.Transaction) *big.Int {
	switch s.Type {
	case FeeTypeNone:
		return big.NewInt(0)
	case FeeTypeStatic:
		if fee, ok := s.Static[tx.Kind]; ok {
			return new(big.Int).Set(fee)
		}
		return big.NewInt(0)
	default:
		size := tx.SerializedSize()
		halved := uint64((size + 1) / 2)
		bytes := new(big.Int).SetUint64(halved + s.AddonBytes[tx.Kind])
		perByte := s.FeePerByte
		if perByte == nil {
			perByte = big.NewInt(0)
		}
		return bytes.Mul(bytes, perByte)
	}
}

// Check validates the fee declared on the transaction against the schedule.
// Only static schedules constrain the declared fee.
func (s Schedule) Check(tx *types.Transaction) error {
	if s.Type != FeeTypeStatic {
		return nil
	}
	expected := s.Compute(tx)
	declared := tx.Fee
	if declared == nil {
		declared = big.NewInt(0)
	}
	if declared.Cmp(expected) != 0 {
		return fmt.Errorf("%w: declared %s, expected %s for %s", ErrStaticFeeMismatch, declared, expected, tx.Kind)
	}
	return nil
}
