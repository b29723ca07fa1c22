package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"nftlend/crypto"
)

// GenesisFees holds the per-mille platform parameters applied when a fresh
// ledger is initialised.
type GenesisFees struct {
	FeePercentage uint32 `toml:"FeePercentage"`
	InterestRate  uint32 `toml:"InterestRate"`
	LTV           uint32 `toml:"LTV"`
}

// GenesisMultisig holds the bootstrap owner set for the platform authority.
// Owners are bech32 addresses.
type GenesisMultisig struct {
	Owners    []string `toml:"Owners"`
	Threshold uint64   `toml:"Threshold"`
}

// Genesis describes the initial protocol state written exactly once to a
// fresh data directory.
type Genesis struct {
	PlatformFees GenesisFees     `toml:"PlatformFees"`
	Multisig     GenesisMultisig `toml:"Multisig"`
}

// Config is the node configuration loaded from TOML.
type Config struct {
	DataDir     string  `toml:"DataDir"`
	NetworkName string  `toml:"NetworkName"`
	Genesis     Genesis `toml:"Genesis"`
}

// Load reads the configuration from the given path, creating a default file
// with a generated bootstrap owner when none exists. Unknown keys are logged
// rather than refused so configs stay forward compatible.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		slog.Warn("config: ignoring unknown key", "key", undecoded.String(), "path", path)
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "lend-local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./lend-data"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	ms := c.Genesis.Multisig
	if len(ms.Owners) == 0 {
		return fmt.Errorf("config: genesis multisig needs at least one owner")
	}
	if ms.Threshold == 0 || ms.Threshold > uint64(len(ms.Owners)) {
		return fmt.Errorf("config: genesis multisig threshold %d out of range for %d owners", ms.Threshold, len(ms.Owners))
	}
	for _, owner := range ms.Owners {
		if _, err := crypto.DecodeAddress(owner); err != nil {
			return fmt.Errorf("config: genesis owner %q: %w", owner, err)
		}
	}
	fees := c.Genesis.PlatformFees
	if fees.FeePercentage > 1000 || fees.LTV > 1000 {
		return fmt.Errorf("config: genesis fee percentage and ltv must not exceed 1000 per-mille")
	}
	return nil
}

// createDefault generates a bootstrap owner key and saves a default
// configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		DataDir:     "./lend-data",
		NetworkName: "lend-local",
		Genesis: Genesis{
			PlatformFees: GenesisFees{FeePercentage: 30, InterestRate: 50, LTV: 800},
			Multisig: GenesisMultisig{
				Owners:    []string{key.PubKey().Address().String()},
				Threshold: 1,
			},
		},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
