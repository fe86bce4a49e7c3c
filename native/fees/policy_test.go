package fees

import (
	"errors"
	"math/big"
	"testing"

	"nftchain/core/types"
)

func bidTx(amount int64) *types.Transaction {
	return &types.Transaction{
		Kind:            types.TxKindBid,
		Nonce:           1,
		SenderPublicKey: "bidder-public-key",
		Asset: types.Asset{Bid: &types.BidAsset{
			AuctionID: "auction-1",
			BidAmount: big.NewInt(amount),
		}},
	}
}

func TestDynamicFeeScalesWithSize(t *testing.T) {
	schedule := Schedule{
		Type:       FeeTypeDynamic,
		FeePerByte: big.NewInt(3),
		AddonBytes: map[types.TxKind]uint64{types.TxKindBid: 10},
	}
	tx := bidTx(2)

	size := tx.SerializedSize()
	want := new(big.Int).SetUint64(uint64((size+1)/2) + 10)
	want.Mul(want, big.NewInt(3))
	if got := schedule.Compute(tx); got.Cmp(want) != 0 {
		t.Fatalf("fee = %s, want %s", got, want)
	}

	// No addon configured for the kind means just the halved size.
	bare := Schedule{Type: FeeTypeDynamic, FeePerByte: big.NewInt(3)}
	want = new(big.Int).SetUint64(uint64((size + 1) / 2))
	want.Mul(want, big.NewInt(3))
	if got := bare.Compute(tx); got.Cmp(want) != 0 {
		t.Fatalf("fee without addon = %s, want %s", got, want)
	}

	// Dynamic schedules do not constrain the declared fee.
	tx.Fee = big.NewInt(1)
	if err := schedule.Check(tx); err != nil {
		t.Fatalf("dynamic check: %v", err)
	}
}

func TestStaticFeeMustMatchDeclared(t *testing.T) {
	schedule := Schedule{
		Type:   FeeTypeStatic,
		Static: map[types.TxKind]*big.Int{types.TxKindBid: big.NewInt(7)},
	}

	tx := bidTx(2)
	tx.Fee = big.NewInt(7)
	if err := schedule.Check(tx); err != nil {
		t.Fatalf("matching fee rejected: %v", err)
	}

	tx = bidTx(3)
	tx.Fee = big.NewInt(6)
	if err := schedule.Check(tx); !errors.Is(err, ErrStaticFeeMismatch) {
		t.Fatalf("expected ErrStaticFeeMismatch, got %v", err)
	}

	// A kind without a static entry costs zero.
	free := bidTx(4)
	free.Kind = types.TxKindTransferToken
	free.Asset = types.Asset{TransferToken: &types.TransferTokenAsset{NFTIDs: []string{"token-1"}, RecipientID: "recipient"}}
	if got := schedule.Compute(free); got.Sign() != 0 {
		t.Fatalf("unlisted kind fee = %s, want 0", got)
	}
	if err := schedule.Check(free); err != nil {
		t.Fatalf("zero-fee check: %v", err)
	}
}

func TestNoneFeeIsAlwaysZero(t *testing.T) {
	schedule := Schedule{Type: FeeTypeNone, FeePerByte: big.NewInt(100)}
	tx := bidTx(2)
	if got := schedule.Compute(tx); got.Sign() != 0 {
		t.Fatalf("fee = %s, want 0", got)
	}
	tx.Fee = big.NewInt(42)
	if err := schedule.Check(tx); err != nil {
		t.Fatalf("none check: %v", err)
	}
}

func TestScheduleCloneIsIndependent(t *testing.T) {
	original := Schedule{
		Type:       FeeTypeStatic,
		FeePerByte: big.NewInt(3),
		AddonBytes: map[types.TxKind]uint64{types.TxKindBid: 10},
		Static:     map[types.TxKind]*big.Int{types.TxKindBid: big.NewInt(7)},
	}
	clone := original.Clone()
	clone.FeePerByte.SetInt64(99)
	clone.AddonBytes[types.TxKindBid] = 99
	clone.Static[types.TxKindBid].SetInt64(99)

	if original.FeePerByte.Int64() != 3 {
		t.Fatalf("clone aliased FeePerByte")
	}
	if original.AddonBytes[types.TxKindBid] != 10 {
		t.Fatalf("clone aliased AddonBytes")
	}
	if original.Static[types.TxKindBid].Int64() != 7 {
		t.Fatalf("clone aliased Static")
	}
}
