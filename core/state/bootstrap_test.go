package state

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"nftchain/core/types"
	"nftchain/native/common"
	"nftchain/native/exchange"
	"nftchain/native/nft"
	"nftchain/storage"
)

type stubHandler struct {
	kind  types.TxKind
	deps  []types.TxKind
	order *[]types.TxKind
}

func (s *stubHandler) Kind() types.TxKind            { return s.kind }
func (s *stubHandler) Dependencies() []types.TxKind  { return s.deps }
func (s *stubHandler) Bootstrap() error              { *s.order = append(*s.order, s.kind); return nil }
func (s *stubHandler) Apply(*types.Transaction) error { return nil }
func (s *stubHandler) Revert(*types.Transaction) error { return nil }
func (s *stubHandler) CheckApplicable(*types.Transaction, *types.Account) error { return nil }
func (s *stubHandler) CheckPool(*types.Transaction, common.PoolQuery) error     { return nil }

func TestBootstrapOrdersByDependencies(t *testing.T) {
	var order []types.TxKind
	handlers := []common.Handler{
		&stubHandler{kind: types.TxKindBid, deps: []types.TxKind{types.TxKindAuction}, order: &order},
		&stubHandler{kind: types.TxKindAuction, deps: []types.TxKind{types.TxKindCreateToken}, order: &order},
		&stubHandler{kind: types.TxKindCreateToken, order: &order},
	}
	if err := Bootstrap(handlers); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	want := []types.TxKind{types.TxKindCreateToken, types.TxKindAuction, types.TxKindBid}
	if len(order) != len(want) {
		t.Fatalf("order length = %d, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestBootstrapRejectsCyclesAndGaps(t *testing.T) {
	var order []types.TxKind

	cyclic := []common.Handler{
		&stubHandler{kind: types.TxKindBid, deps: []types.TxKind{types.TxKindBidCancel}, order: &order},
		&stubHandler{kind: types.TxKindBidCancel, deps: []types.TxKind{types.TxKindBid}, order: &order},
	}
	if err := Bootstrap(cyclic); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}

	gapped := []common.Handler{
		&stubHandler{kind: types.TxKindBid, deps: []types.TxKind{types.TxKindAuction}, order: &order},
	}
	if err := Bootstrap(gapped); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing-handler error, got %v", err)
	}

	duplicated := []common.Handler{
		&stubHandler{kind: types.TxKindBid, order: &order},
		&stubHandler{kind: types.TxKindBid, order: &order},
	}
	if err := Bootstrap(duplicated); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate-handler error, got %v", err)
	}
}

type heightAt uint64

func (h heightAt) Height() uint64 { return uint64(h) }

// TestBootstrapReplaysFullLifecycle rebuilds ledger state from a confirmed
// history spanning registration, minting, a listing, two bids, a bid
// withdrawal and the settlement. The history carries marketplace
// transactions only, so replay reproduces balance deltas relative to
// whatever funding the accounts held.
func TestBootstrapReplaysFullLifecycle(t *testing.T) {
	history, err := storage.NewHistory(storage.NewMemDB())
	if err != nil {
		t.Fatalf("new history: %v", err)
	}
	const (
		sellerKey = "seller-public-key"
		bidderKey = "bidder-public-key"
		rivalKey  = "rival-public-key"
	)

	register := &types.Transaction{
		Kind:            types.TxKindRegisterCollection,
		Nonce:           1,
		SenderPublicKey: sellerKey,
		Asset: types.Asset{RegisterCollection: &types.RegisterCollectionAsset{
			Name:          "heroes",
			MaximumSupply: 100,
			JSONSchema:    json.RawMessage(`{"type":"object"}`),
		}},
	}
	mint := &types.Transaction{
		Kind:            types.TxKindCreateToken,
		Nonce:           2,
		SenderPublicKey: sellerKey,
		Asset: types.Asset{CreateToken: &types.CreateTokenAsset{
			CollectionID: register.ID(),
			Attributes:   json.RawMessage(`{}`),
		}},
	}
	listing := &types.Transaction{
		Kind:            types.TxKindAuction,
		Nonce:           3,
		SenderPublicKey: sellerKey,
		Asset: types.Asset{Auction: &types.AuctionAsset{
			NFTIDs:      []string{mint.ID()},
			StartAmount: big.NewInt(1),
			Expiration:  types.AuctionExpiration{BlockHeight: 30},
		}},
	}
	losingBid := &types.Transaction{
		Kind:            types.TxKindBid,
		Nonce:           4,
		SenderPublicKey: bidderKey,
		Asset:           types.Asset{Bid: &types.BidAsset{AuctionID: listing.ID(), BidAmount: big.NewInt(2)}},
	}
	winningBid := &types.Transaction{
		Kind:            types.TxKindBid,
		Nonce:           5,
		SenderPublicKey: rivalKey,
		Asset:           types.Asset{Bid: &types.BidAsset{AuctionID: listing.ID(), BidAmount: big.NewInt(3)}},
	}
	withdrawal := &types.Transaction{
		Kind:            types.TxKindBidCancel,
		Nonce:           6,
		SenderPublicKey: bidderKey,
		Asset:           types.Asset{BidCancel: &types.BidCancelAsset{BidID: losingBid.ID()}},
	}
	settlement := &types.Transaction{
		Kind:            types.TxKindAcceptTrade,
		Nonce:           7,
		SenderPublicKey: sellerKey,
		Asset:           types.Asset{AcceptTrade: &types.AcceptTradeAsset{AuctionID: listing.ID(), BidID: winningBid.ID()}},
	}
	for _, tx := range []*types.Transaction{register, mint, listing, losingBid, winningBid, withdrawal, settlement} {
		if err := history.Append(tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	ledger := NewManager()
	handlers := []common.Handler{
		nft.NewRegistryHandler(ledger, ledger, history, nil, nil),
		nft.NewCreateHandler(ledger, ledger, history, nil, nil),
		nft.NewTransferHandler(ledger, ledger, history, nil),
		nft.NewBurnHandler(ledger, ledger, history, nil),
		exchange.NewAuctionHandler(ledger, ledger, history, heightAt(5), nil),
		exchange.NewAuctionCancelHandler(ledger, ledger, history, nil),
		exchange.NewBidHandler(ledger, ledger, history, heightAt(5), nil),
		exchange.NewBidCancelHandler(ledger, ledger, history, nil),
		exchange.NewAcceptTradeHandler(ledger, ledger, history, nil),
	}
	if err := Bootstrap(handlers); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	seller, _ := ledger.ByPublicKey(sellerKey)
	bidder, _ := ledger.ByPublicKey(bidderKey)
	rival, _ := ledger.ByPublicKey(rivalKey)

	collection, ok := seller.Collections[register.ID()]
	if !ok || collection.CurrentSupply != 1 {
		t.Fatalf("collection not rebuilt: %+v", collection)
	}
	if !rival.OwnsToken(mint.ID()) || seller.OwnsToken(mint.ID()) {
		t.Fatalf("settled token must end with the winning bidder")
	}
	if owner, ok := ledger.Get(common.IndexTokens, mint.ID()); !ok || owner != rival {
		t.Fatalf("token index must point at the winning bidder")
	}
	if len(seller.Auctions) != 0 {
		t.Fatalf("settled listing must be gone after replay")
	}
	if _, ok := ledger.Get(common.IndexAuctions, listing.ID()); ok {
		t.Fatalf("settled listing must not be indexed after replay")
	}
	if seller.Balance.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("seller delta = %s, want 3", seller.Balance)
	}
	if bidder.Balance.Sign() != 0 || bidder.LockedBalance.Sign() != 0 {
		t.Fatalf("withdrawn bidder must net to zero: %s/%s", bidder.Balance, bidder.LockedBalance)
	}
	paid := new(big.Int).Add(rival.Balance, rival.LockedBalance)
	if paid.Cmp(big.NewInt(-3)) != 0 {
		t.Fatalf("winning bidder delta = %s, want -3", paid)
	}
}

// TestBootstrapSkipsBidsOnCancelledListings replays a history where the
// listing was cancelled: the cancellation bootstraps before any bid, so the
// orphaned bid is skipped and no escrow is created.
func TestBootstrapSkipsBidsOnCancelledListings(t *testing.T) {
	history, err := storage.NewHistory(storage.NewMemDB())
	if err != nil {
		t.Fatalf("new history: %v", err)
	}
	const (
		sellerKey = "seller-public-key"
		bidderKey = "bidder-public-key"
	)

	register := &types.Transaction{
		Kind:            types.TxKindRegisterCollection,
		Nonce:           1,
		SenderPublicKey: sellerKey,
		Asset: types.Asset{RegisterCollection: &types.RegisterCollectionAsset{
			Name:          "heroes",
			MaximumSupply: 100,
			JSONSchema:    json.RawMessage(`{"type":"object"}`),
		}},
	}
	mint := &types.Transaction{
		Kind:            types.TxKindCreateToken,
		Nonce:           2,
		SenderPublicKey: sellerKey,
		Asset: types.Asset{CreateToken: &types.CreateTokenAsset{
			CollectionID: register.ID(),
			Attributes:   json.RawMessage(`{}`),
		}},
	}
	listing := &types.Transaction{
		Kind:            types.TxKindAuction,
		Nonce:           3,
		SenderPublicKey: sellerKey,
		Asset: types.Asset{Auction: &types.AuctionAsset{
			NFTIDs:      []string{mint.ID()},
			StartAmount: big.NewInt(1),
			Expiration:  types.AuctionExpiration{BlockHeight: 30},
		}},
	}
	bid := &types.Transaction{
		Kind:            types.TxKindBid,
		Nonce:           4,
		SenderPublicKey: bidderKey,
		Asset:           types.Asset{Bid: &types.BidAsset{AuctionID: listing.ID(), BidAmount: big.NewInt(2)}},
	}
	cancel := &types.Transaction{
		Kind:            types.TxKindAuctionCancel,
		Nonce:           5,
		SenderPublicKey: sellerKey,
		Asset:           types.Asset{AuctionCancel: &types.AuctionCancelAsset{AuctionID: listing.ID()}},
	}
	for _, tx := range []*types.Transaction{register, mint, listing, bid, cancel} {
		if err := history.Append(tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	ledger := NewManager()
	handlers := []common.Handler{
		nft.NewRegistryHandler(ledger, ledger, history, nil, nil),
		nft.NewCreateHandler(ledger, ledger, history, nil, nil),
		nft.NewTransferHandler(ledger, ledger, history, nil),
		nft.NewBurnHandler(ledger, ledger, history, nil),
		exchange.NewAuctionHandler(ledger, ledger, history, heightAt(5), nil),
		exchange.NewAuctionCancelHandler(ledger, ledger, history, nil),
		exchange.NewBidHandler(ledger, ledger, history, heightAt(5), nil),
		exchange.NewBidCancelHandler(ledger, ledger, history, nil),
		exchange.NewAcceptTradeHandler(ledger, ledger, history, nil),
	}
	if err := Bootstrap(handlers); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	seller, _ := ledger.ByPublicKey(sellerKey)
	bidder, _ := ledger.ByPublicKey(bidderKey)
	if len(seller.Auctions) != 0 {
		t.Fatalf("cancelled listing must not survive replay")
	}
	if bidder.Balance.Sign() != 0 || bidder.LockedBalance.Sign() != 0 {
		t.Fatalf("orphaned bid must leave no escrow: %s/%s", bidder.Balance, bidder.LockedBalance)
	}
	if !seller.OwnsToken(mint.ID()) {
		t.Fatalf("token must remain with the seller")
	}
}
