package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"nftchain/core/types"
	"nftchain/native/fees"
)

// Config carries the node-level marketplace settings: who may register
// collections, and how transaction fees are computed.
type Config struct {
	// AuthorizedRegistrators restricts collection registration to the
	// listed public keys. Empty means registration is open.
	AuthorizedRegistrators []string `toml:"AuthorizedRegistrators"`
	Fees                   Fees     `toml:"Fees"`
}

// Fees configures the fee policy. Type is one of "dynamic", "static" or
// "none". Static amounts and addon bytes are keyed by transaction kind name
// (e.g. "bid", "acceptTrade").
type Fees struct {
	Type       string           `toml:"Type"`
	FeePerByte int64            `toml:"FeePerByte"`
	AddonBytes map[string]int64 `toml:"AddonBytes"`
	Static     map[string]int64 `toml:"Static"`
}

// Load reads the configuration from the given path. A missing file yields
// the defaults: open registration and no fees.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.AuthorizedRegistrators == nil {
		cfg.AuthorizedRegistrators = []string{}
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		AuthorizedRegistrators: []string{},
		Fees:                   Fees{Type: "none"},
	}
}

// FeeSchedule materialises the fee policy collaborator from the config.
func (c *Config) FeeSchedule() (fees.Schedule, error) {
	schedule := fees.Schedule{FeePerByte: big.NewInt(c.Fees.FeePerByte)}
	switch strings.ToLower(strings.TrimSpace(c.Fees.Type)) {
	case "", "none":
		schedule.Type = fees.FeeTypeNone
	case "dynamic":
		schedule.Type = fees.FeeTypeDynamic
	case "static":
		schedule.Type = fees.FeeTypeStatic
	default:
		return fees.Schedule{}, fmt.Errorf("config: unknown fee type %q", c.Fees.Type)
	}
	if len(c.Fees.AddonBytes) > 0 {
		schedule.AddonBytes = make(map[types.TxKind]uint64, len(c.Fees.AddonBytes))
		for name, addon := range c.Fees.AddonBytes {
			kind, err := kindByName(name)
			if err != nil {
				return fees.Schedule{}, err
			}
			schedule.AddonBytes[kind] = uint64(addon)
		}
	}
	if len(c.Fees.Static) > 0 {
		schedule.Static = make(map[types.TxKind]*big.Int, len(c.Fees.Static))
		for name, amount := range c.Fees.Static {
			kind, err := kindByName(name)
			if err != nil {
				return fees.Schedule{}, err
			}
			schedule.Static[kind] = big.NewInt(amount)
		}
	}
	return schedule, nil
}

var kindNames = map[string]types.TxKind{
	types.TxKindRegisterCollection.String(): types.TxKindRegisterCollection,
	types.TxKindCreateToken.String():        types.TxKindCreateToken,
	types.TxKindTransferToken.String():      types.TxKindTransferToken,
	types.TxKindBurnToken.String():          types.TxKindBurnToken,
	types.TxKindAuction.String():            types.TxKindAuction,
	types.TxKindAuctionCancel.String():      types.TxKindAuctionCancel,
	types.TxKindBid.String():                types.TxKindBid,
	types.TxKindBidCancel.String():          types.TxKindBidCancel,
	types.TxKindAcceptTrade.String():        types.TxKindAcceptTrade,
}

func kindByName(name string) (types.TxKind, error) {
	if kind, ok := kindNames[name]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("config: unknown transaction kind %q", name)
}
