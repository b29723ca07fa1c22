package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nftlend/crypto"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.Equal(t, "lend-local", cfg.NetworkName)
	require.Equal(t, uint32(800), cfg.Genesis.PlatformFees.LTV)
	require.Equal(t, uint64(1), cfg.Genesis.Multisig.Threshold)
	require.Len(t, cfg.Genesis.Multisig.Owners, 1)
	_, err = crypto.DecodeAddress(cfg.Genesis.Multisig.Owners[0])
	require.NoError(t, err, "generated owner must be a valid bech32 address")

	// Loading again reads the persisted file back.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Genesis.Multisig.Owners, reloaded.Genesis.Multisig.Owners)
}

func TestLoadExistingFile(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	owner := key.PubKey().Address().String()

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
DataDir = "/tmp/lend"
NetworkName = "lend-test"
UnknownKey = "ignored"

[Genesis.PlatformFees]
FeePercentage = 25
InterestRate = 40
LTV = 700

[Genesis.Multisig]
Owners = ["` + owner + `"]
Threshold = 1
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/lend", cfg.DataDir)
	require.Equal(t, "lend-test", cfg.NetworkName)
	require.Equal(t, uint32(25), cfg.Genesis.PlatformFees.FeePercentage)
	require.Equal(t, []string{owner}, cfg.Genesis.Multisig.Owners)
}

func TestLoadRejectsBadGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[Genesis.Multisig]
Owners = ["not-an-address"]
Threshold = 1
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err := Load(path)
	require.Error(t, err)

	body = `
[Genesis.Multisig]
Owners = []
Threshold = 0
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}
