package exchange

import (
	"strconv"
	"strings"

	"nftchain/core/types"
)

const (
	EventTypeAuctionOpened    = "exchange.auction.opened"
	EventTypeAuctionCancelled = "exchange.auction.cancelled"
	EventTypeBidPlaced        = "exchange.bid.placed"
	EventTypeBidCancelled     = "exchange.bid.cancelled"
	EventTypeTradeAccepted    = "exchange.trade.accepted"
)

type exchangeEvent struct {
	evt *types.Event
}

func (e exchangeEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e exchangeEvent) Event() *types.Event { return e.evt }

// NewAuctionOpenedEvent returns the canonical payload for a new listing.
func NewAuctionOpenedEvent(a *types.Auction, seller string) *types.Event {
	return &types.Event{
		Type: EventTypeAuctionOpened,
		Attributes: map[string]string{
			"auctionId":        a.ID,
			"seller":           seller,
			"tokenIds":         strings.Join(a.NFTIDs, ","),
			"startAmount":      a.StartAmount.String(),
			"expirationHeight": strconv.FormatUint(a.ExpirationHeight, 10),
		},
	}
}

// NewAuctionCancelledEvent returns the payload for a cancelled listing.
func NewAuctionCancelledEvent(auctionID, seller string, refundedBids int) *types.Event {
	return &types.Event{
		Type: EventTypeAuctionCancelled,
		Attributes: map[string]string{
			"auctionId":    auctionID,
			"seller":       seller,
			"refundedBids": strconv.Itoa(refundedBids),
		},
	}
}

// NewBidPlacedEvent returns the payload for a freshly escrowed bid.
func NewBidPlacedEvent(bidID, auctionID, bidder, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeBidPlaced,
		Attributes: map[string]string{
			"bidId":     bidID,
			"auctionId": auctionID,
			"bidder":    bidder,
			"amount":    amount,
		},
	}
}

// NewBidCancelledEvent returns the payload for a refunded bid.
func NewBidCancelledEvent(bidID, auctionID, bidder string) *types.Event {
	return &types.Event{
		Type: EventTypeBidCancelled,
		Attributes: map[string]string{
			"bidId":     bidID,
			"auctionId": auctionID,
			"bidder":    bidder,
		},
	}
}

// NewTradeAcceptedEvent returns the payload for a settled listing.
func NewTradeAcceptedEvent(auctionID, bidID, seller, winner, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeTradeAccepted,
		Attributes: map[string]string{
			"auctionId": auctionID,
			"bidId":     bidID,
			"seller":    seller,
			"winner":    winner,
			"amount":    amount,
		},
	}
}
