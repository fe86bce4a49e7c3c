package exchange

import (
	"fmt"

	"nftchain/core/types"
	"nftchain/native/common"
)

// activeBids re-derives the set of bids that were still live on an auction
// by scanning confirmed history: every bid placed against the auction minus
// every bid that has a recorded cancellation. Used by the auction-cancel and
// accept-trade reverts, which must restore exactly the bid list that was
// refunded.
func activeBids(history common.History, auctionID string) ([]*types.Transaction, error) {
	var bids []*types.Transaction
	var bidIDs []string
	err := history.Stream(common.Filter{Kind: types.TxKindBid, AuctionID: auctionID}, func(tx *types.Transaction) error {
		bids = append(bids, tx)
		bidIDs = append(bidIDs, tx.ID())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return nil, nil
	}
	cancelled := make(map[string]struct{})
	err = history.Stream(common.Filter{Kind: types.TxKindBidCancel, BidIDs: bidIDs}, func(tx *types.Transaction) error {
		cancelled[tx.Asset.BidCancel.BidID] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	surviving := bids[:0]
	for _, bid := range bids {
		if _, ok := cancelled[bid.ID()]; ok {
			continue
		}
		surviving = append(surviving, bid)
	}
	return surviving, nil
}

// auctionFromTx rebuilds the listing record from its originating auction
// transaction, with the supplied active bid list.
func auctionFromTx(auctionTx *types.Transaction, bidIDs []string) (*types.Auction, error) {
	asset := auctionTx.Asset.Auction
	if asset == nil {
		return nil, fmt.Errorf("exchange: transaction %s is not an auction", auctionTx.ID())
	}
	return &types.Auction{
		ID:               auctionTx.ID(),
		NFTIDs:           append([]string(nil), asset.NFTIDs...),
		StartAmount:      asset.StartAmount,
		ExpirationHeight: asset.Expiration.BlockHeight,
		Bids:             append([]string(nil), bidIDs...),
	}, nil
}
