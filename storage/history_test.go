package storage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"nftchain/core/types"
	"nftchain/native/common"
)

func bidTx(nonce uint64, sender, auctionID string, amount int64) *types.Transaction {
	return &types.Transaction{
		Kind:            types.TxKindBid,
		Nonce:           nonce,
		SenderPublicKey: sender,
		Asset: types.Asset{Bid: &types.BidAsset{
			AuctionID: auctionID,
			BidAmount: big.NewInt(amount),
		}},
	}
}

func bidCancelTx(nonce uint64, sender, bidID string) *types.Transaction {
	return &types.Transaction{
		Kind:            types.TxKindBidCancel,
		Nonce:           nonce,
		SenderPublicKey: sender,
		Asset:           types.Asset{BidCancel: &types.BidCancelAsset{BidID: bidID}},
	}
}

func TestHistoryAppendAndFind(t *testing.T) {
	history, err := NewHistory(NewMemDB())
	require.NoError(t, err)

	tx := bidTx(1, "bidder-public-key", "auction-1", 2)
	require.NoError(t, history.Append(tx))

	found, err := history.FindByID(tx.ID())
	require.NoError(t, err)
	require.Equal(t, tx.ID(), found.ID())
	require.Equal(t, types.TxKindBid, found.Kind)
	require.Equal(t, "auction-1", found.Asset.Bid.AuctionID)
	require.Zero(t, found.Asset.Bid.BidAmount.Cmp(big.NewInt(2)))

	_, err = history.FindByID("no-such-id")
	require.ErrorIs(t, err, ErrTxNotFound)
}

func TestHistoryFindByIDsFailsOnGap(t *testing.T) {
	history, err := NewHistory(NewMemDB())
	require.NoError(t, err)

	tx := bidTx(1, "bidder-public-key", "auction-1", 2)
	require.NoError(t, history.Append(tx))

	txs, err := history.FindByIDs([]string{tx.ID()})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	_, err = history.FindByIDs([]string{tx.ID(), "no-such-id"})
	require.ErrorIs(t, err, ErrTxNotFound)
}

func TestHistoryStreamsInAppendOrder(t *testing.T) {
	history, err := NewHistory(NewMemDB())
	require.NoError(t, err)

	first := bidTx(1, "bidder-public-key", "auction-1", 2)
	second := bidTx(2, "rival-public-key", "auction-2", 3)
	third := bidCancelTx(3, "bidder-public-key", first.ID())
	for _, tx := range []*types.Transaction{first, second, third} {
		require.NoError(t, history.Append(tx))
	}

	var all []string
	require.NoError(t, history.Stream(common.Filter{}, func(tx *types.Transaction) error {
		all = append(all, tx.ID())
		return nil
	}))
	require.Equal(t, []string{first.ID(), second.ID(), third.ID()}, all)

	var bids []string
	require.NoError(t, history.Stream(common.Filter{Kind: types.TxKindBid}, func(tx *types.Transaction) error {
		bids = append(bids, tx.ID())
		return nil
	}))
	require.Equal(t, []string{first.ID(), second.ID()}, bids)

	var onAuction []string
	filter := common.Filter{Kind: types.TxKindBid, AuctionID: "auction-2"}
	require.NoError(t, history.Stream(filter, func(tx *types.Transaction) error {
		onAuction = append(onAuction, tx.ID())
		return nil
	}))
	require.Equal(t, []string{second.ID()}, onAuction)

	var cancels []string
	filter = common.Filter{Kind: types.TxKindBidCancel, BidIDs: []string{first.ID()}}
	require.NoError(t, history.Stream(filter, func(tx *types.Transaction) error {
		cancels = append(cancels, tx.ID())
		return nil
	}))
	require.Equal(t, []string{third.ID()}, cancels)
}

func TestHistoryRemoveDropsTransaction(t *testing.T) {
	db := NewMemDB()
	history, err := NewHistory(db)
	require.NoError(t, err)

	first := bidTx(1, "bidder-public-key", "auction-1", 2)
	second := bidTx(2, "rival-public-key", "auction-1", 3)
	require.NoError(t, history.Append(first))
	require.NoError(t, history.Append(second))

	require.NoError(t, history.Remove(first.ID()))
	_, err = history.FindByID(first.ID())
	require.ErrorIs(t, err, ErrTxNotFound)

	var all []string
	require.NoError(t, history.Stream(common.Filter{}, func(tx *types.Transaction) error {
		all = append(all, tx.ID())
		return nil
	}))
	require.Equal(t, []string{second.ID()}, all)

	// Reopening over the gapped log must not reuse the freed sequence slot.
	reopened, err := NewHistory(db)
	require.NoError(t, err)
	third := bidTx(3, "bidder-public-key", "auction-1", 4)
	require.NoError(t, reopened.Append(third))

	all = nil
	require.NoError(t, reopened.Stream(common.Filter{}, func(tx *types.Transaction) error {
		all = append(all, tx.ID())
		return nil
	}))
	require.Equal(t, []string{second.ID(), third.ID()}, all)
}

func TestHistoryRecoversSequenceFromBackend(t *testing.T) {
	db := NewMemDB()
	history, err := NewHistory(db)
	require.NoError(t, err)

	first := bidTx(1, "bidder-public-key", "auction-1", 2)
	require.NoError(t, history.Append(first))

	// A new handle over the same backend continues the log.
	reopened, err := NewHistory(db)
	require.NoError(t, err)
	second := bidTx(2, "bidder-public-key", "auction-1", 3)
	require.NoError(t, reopened.Append(second))

	var all []string
	require.NoError(t, reopened.Stream(common.Filter{}, func(tx *types.Transaction) error {
		all = append(all, tx.ID())
		return nil
	}))
	require.Equal(t, []string{first.ID(), second.ID()}, all)
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("t/one"), []byte("alpha")))
	require.NoError(t, db.Put([]byte("t/two"), []byte("beta")))
	require.NoError(t, db.Put([]byte("s/one"), []byte("gamma")))

	value, err := db.Get([]byte("t/one"))
	require.NoError(t, err)
	require.Equal(t, []byte("alpha"), value)

	var keys []string
	require.NoError(t, db.Iterate([]byte("t/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	}))
	require.Equal(t, []string{"t/one", "t/two"}, keys)

	require.NoError(t, db.Delete([]byte("t/one")))
	_, err = db.Get([]byte("t/one"))
	require.Error(t, err)
}
