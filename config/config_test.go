package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nftchain/core/types"
	"nftchain/native/fees"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Empty(t, cfg.AuthorizedRegistrators)
	require.Equal(t, "none", cfg.Fees.Type)

	schedule, err := cfg.FeeSchedule()
	require.NoError(t, err)
	require.Equal(t, fees.FeeTypeNone, schedule.Type)
}

func TestLoadParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.toml")
	raw := `
AuthorizedRegistrators = ["issuer-public-key"]

[Fees]
Type = "static"
FeePerByte = 2

[Fees.Static]
bid = 7
acceptTrade = 11

[Fees.AddonBytes]
registerCollection = 300
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"issuer-public-key"}, cfg.AuthorizedRegistrators)

	schedule, err := cfg.FeeSchedule()
	require.NoError(t, err)
	require.Equal(t, fees.FeeTypeStatic, schedule.Type)
	require.Zero(t, schedule.Static[types.TxKindBid].Cmp(big.NewInt(7)))
	require.Zero(t, schedule.Static[types.TxKindAcceptTrade].Cmp(big.NewInt(11)))
	require.Equal(t, uint64(300), schedule.AddonBytes[types.TxKindRegisterCollection])
}

func TestFeeScheduleRejectsUnknownNames(t *testing.T) {
	cfg := &Config{Fees: Fees{Type: "progressive"}}
	_, err := cfg.FeeSchedule()
	require.ErrorContains(t, err, "unknown fee type")

	cfg = &Config{Fees: Fees{Type: "static", Static: map[string]int64{"mintToken": 5}}}
	_, err = cfg.FeeSchedule()
	require.ErrorContains(t, err, "unknown transaction kind")
}

func TestFeeScheduleTypeIsCaseInsensitive(t *testing.T) {
	cfg := &Config{Fees: Fees{Type: " Dynamic ", FeePerByte: 4}}
	schedule, err := cfg.FeeSchedule()
	require.NoError(t, err)
	require.Equal(t, fees.FeeTypeDynamic, schedule.Type)
	require.Zero(t, schedule.FeePerByte.Cmp(big.NewInt(4)))
}
