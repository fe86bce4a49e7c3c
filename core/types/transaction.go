package types

import (
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// TxKind defines the purpose of a marketplace transaction.
type TxKind byte

const (
	TxKindRegisterCollection TxKind = 0x10 // Register a schema-constrained token collection
	TxKindCreateToken        TxKind = 0x11 // Mint a token against a collection
	TxKindTransferToken      TxKind = 0x12 // Move tokens between accounts
	TxKindBurnToken          TxKind = 0x13 // Destroy a token
	TxKindAuction            TxKind = 0x14 // Escrow tokens into a listing
	TxKindAuctionCancel      TxKind = 0x15 // Release a listing, refund its bids
	TxKindBid                TxKind = 0x16 // Escrow funds against a listing
	TxKindBidCancel          TxKind = 0x17 // Refund a single bid
	TxKindAcceptTrade        TxKind = 0x18 // Finalize a listing against a winning bid
)

// String returns the canonical lowercase name used in logs, metrics and
// config keys.
func (k TxKind) String() string {
	switch k {
	case TxKindRegisterCollection:
		return "registerCollection"
	case TxKindCreateToken:
		return "createToken"
	case TxKindTransferToken:
		return "transferToken"
	case TxKindBurnToken:
		return "burnToken"
	case TxKindAuction:
		return "auction"
	case TxKindAuctionCancel:
		return "auctionCancel"
	case TxKindBid:
		return "bid"
	case TxKindBidCancel:
		return "bidCancel"
	case TxKindAcceptTrade:
		return "acceptTrade"
	default:
		return "unknown"
	}
}

// AuctionExpiration pins a listing to a chain height after which bids are
// rejected.
type AuctionExpiration struct {
	BlockHeight uint64 `json:"blockHeight"`
}

// RegisterCollectionAsset declares a new token collection. JSONSchema must be
// a syntactically valid JSON schema; Metadata, when present, fixes the exact
// attribute payload every minted token must carry.
type RegisterCollectionAsset struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	MaximumSupply  uint64          `json:"maximumSupply"`
	JSONSchema     json.RawMessage `json:"jsonSchema"`
	AllowedIssuers []string        `json:"allowedIssuers,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// CreateTokenAsset mints one token against an existing collection. When
// RecipientID is empty the minted token is credited to the sender.
type CreateTokenAsset struct {
	CollectionID string          `json:"collectionId"`
	Attributes   json.RawMessage `json:"attributes"`
	RecipientID  string          `json:"recipientId,omitempty"`
}

// TransferTokenAsset moves one or more tokens to a recipient account.
type TransferTokenAsset struct {
	NFTIDs      []string `json:"nftIds"`
	RecipientID string   `json:"recipientId"`
}

// BurnTokenAsset destroys a single token.
type BurnTokenAsset struct {
	NFTID string `json:"nftId"`
}

// AuctionAsset opens a listing over the named tokens.
type AuctionAsset struct {
	NFTIDs      []string          `json:"nftIds"`
	StartAmount *big.Int          `json:"startAmount"`
	Expiration  AuctionExpiration `json:"expiration"`
}

// AuctionCancelAsset closes a listing owned by the sender.
type AuctionCancelAsset struct {
	AuctionID string `json:"auctionId"`
}

// BidAsset escrows BidAmount against the named listing.
type BidAsset struct {
	AuctionID string   `json:"auctionId"`
	BidAmount *big.Int `json:"bidAmount"`
}

// BidCancelAsset withdraws a bid previously placed by the sender.
type BidCancelAsset struct {
	BidID string `json:"bidId"`
}

// AcceptTradeAsset settles a listing against one of its bids. Issued by the
// listing account.
type AcceptTradeAsset struct {
	AuctionID string `json:"auctionId"`
	BidID     string `json:"bidId"`
}

// Asset is the one-of payload attached to a transaction. Exactly one field
// matching the transaction kind is expected to be non-nil; handlers treat a
// missing sub-object as a malformed transaction.
type Asset struct {
	RegisterCollection *RegisterCollectionAsset `json:"registerCollection,omitempty"`
	CreateToken        *CreateTokenAsset        `json:"createToken,omitempty"`
	TransferToken      *TransferTokenAsset      `json:"transferToken,omitempty"`
	BurnToken          *BurnTokenAsset          `json:"burnToken,omitempty"`
	Auction            *AuctionAsset            `json:"auction,omitempty"`
	AuctionCancel      *AuctionCancelAsset      `json:"auctionCancel,omitempty"`
	Bid                *BidAsset                `json:"bid,omitempty"`
	BidCancel          *BidCancelAsset          `json:"bidCancel,omitempty"`
	AcceptTrade        *AcceptTradeAsset        `json:"acceptTrade,omitempty"`
}

// AuctionReference returns the auction id this asset points at, if any.
func (a Asset) AuctionReference() string {
	switch {
	case a.Auction != nil:
		return ""
	case a.AuctionCancel != nil:
		return a.AuctionCancel.AuctionID
	case a.Bid != nil:
		return a.Bid.AuctionID
	case a.AcceptTrade != nil:
		return a.AcceptTrade.AuctionID
	default:
		return ""
	}
}

// BidReference returns the bid id this asset points at, if any.
func (a Asset) BidReference() string {
	switch {
	case a.BidCancel != nil:
		return a.BidCancel.BidID
	case a.AcceptTrade != nil:
		return a.AcceptTrade.BidID
	default:
		return ""
	}
}

// Transaction is an already-deserialized, already-signature-verified
// marketplace transaction. The cryptographic envelope lives outside this
// subsystem; Sender identifies the signing account by public key.
type Transaction struct {
	Kind            TxKind   `json:"kind"`
	Nonce           uint64   `json:"nonce"`
	SenderPublicKey string   `json:"senderPublicKey"`
	Fee             *big.Int `json:"fee,omitempty"`
	Asset           Asset    `json:"asset"`

	id string
}

// ID returns the content-derived identifier of the transaction: the hex
// encoding of the keccak256 hash over the canonical JSON of the identity
// fields. The value is cached after the first call.
func (tx *Transaction) ID() string {
	if tx.id != "" {
		return tx.id
	}
	payload := struct {
		Kind            TxKind `json:"kind"`
		Nonce           uint64 `json:"nonce"`
		SenderPublicKey string `json:"senderPublicKey"`
		Asset           Asset  `json:"asset"`
	}{tx.Kind, tx.Nonce, tx.SenderPublicKey, tx.Asset}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	tx.id = hex.EncodeToString(crypto.Keccak256(b))
	return tx.id
}

// SerializedSize reports the byte length of the canonical JSON encoding,
// used by the dynamic fee policy.
func (tx *Transaction) SerializedSize() int {
	b, err := json.Marshal(tx)
	if err != nil {
		return 0
	}
	return len(b)
}

// DeriveAddress maps a public key string onto the account address namespace:
// the last 20 bytes of its keccak256 hash, hex encoded.
func DeriveAddress(publicKey string) string {
	h := crypto.Keccak256([]byte(publicKey))
	return hex.EncodeToString(h[12:])
}
