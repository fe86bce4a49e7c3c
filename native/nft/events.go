package nft

import (
	"strconv"
	"strings"

	"nftchain/core/types"
)

const (
	EventTypeCollectionRegistered = "nft.collection.registered"
	EventTypeCollectionDropped    = "nft.collection.dropped"
	EventTypeTokenCreated         = "nft.token.created"
	EventTypeTokenTransferred     = "nft.token.transferred"
	EventTypeTokenBurned          = "nft.token.burned"
)

type nftEvent struct {
	evt *types.Event
}

func (e nftEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e nftEvent) Event() *types.Event { return e.evt }

// NewCollectionRegisteredEvent returns the canonical payload for a freshly
// registered collection.
func NewCollectionRegisteredEvent(c *types.Collection, owner string) *types.Event {
	return &types.Event{
		Type: EventTypeCollectionRegistered,
		Attributes: map[string]string{
			"collectionId":  c.ID,
			"name":          c.Name,
			"owner":         owner,
			"maximumSupply": strconv.FormatUint(c.MaximumSupply, 10),
		},
	}
}

// NewTokenCreatedEvent returns the payload emitted when a token is minted.
func NewTokenCreatedEvent(tokenID, collectionID, recipient string) *types.Event {
	return &types.Event{
		Type: EventTypeTokenCreated,
		Attributes: map[string]string{
			"tokenId":      tokenID,
			"collectionId": collectionID,
			"recipient":    recipient,
		},
	}
}

// NewTokenTransferredEvent returns the payload emitted when tokens move
// between accounts.
func NewTokenTransferredEvent(tokenIDs []string, from, to string) *types.Event {
	return &types.Event{
		Type: EventTypeTokenTransferred,
		Attributes: map[string]string{
			"tokenIds": strings.Join(tokenIDs, ","),
			"from":     from,
			"to":       to,
		},
	}
}

// NewTokenBurnedEvent returns the payload emitted when a token is destroyed.
func NewTokenBurnedEvent(tokenID, collectionID, owner string) *types.Event {
	return &types.Event{
		Type: EventTypeTokenBurned,
		Attributes: map[string]string{
			"tokenId":      tokenID,
			"collectionId": collectionID,
			"owner":        owner,
		},
	}
}
