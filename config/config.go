package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk shape of the migration service configuration.
type Config struct {
	ListenAddress      string  `toml:"ListenAddress"`
	DataDir            string  `toml:"DataDir"`
	Environment        string  `toml:"Environment"`
	LogLevel           string  `toml:"LogLevel"`
	AdminToken         string  `toml:"AdminToken"`
	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`

	Owner    string `toml:"Owner"`
	Treasury string `toml:"Treasury"`

	Bridge   BridgeConfig    `toml:"Bridge"`
	Router   RouterConfig    `toml:"Router"`
	Comets   []CometConfig   `toml:"Comets"`
	Adapters []AdapterConfig `toml:"Adapters"`
	Routes   []RouteConfig   `toml:"Routes"`
}

// BridgeConfig wires the optional stable-pair converter.
type BridgeConfig struct {
	Address string `toml:"Address"`
	TokenA  string `toml:"TokenA"`
	TokenB  string `toml:"TokenB"`
}

// RouterConfig wires the swap router.
type RouterConfig struct {
	Address string `toml:"Address"`
}

// CometConfig describes one destination market and its flash liquidity.
type CometConfig struct {
	Address       string `toml:"Address"`
	BaseToken     string `toml:"BaseToken"`
	BaseBorrowMin string `toml:"BaseBorrowMin"`
	FlashPool     string `toml:"FlashPool"`
	FlashToken0   string `toml:"FlashToken0"`
	FlashToken1   string `toml:"FlashToken1"`
	FlashFeeBps   uint64 `toml:"FlashFeeBps"`
}

// AdapterConfig describes one source-protocol adapter registration.
type AdapterConfig struct {
	Address       string `toml:"Address"`
	Protocol      string `toml:"Protocol"`
	Pool          string `toml:"Pool"`
	FullMigration bool   `toml:"FullMigration"`
}

// RouteConfig seeds the pathfinder with one trusted hop sequence.
type RouteConfig struct {
	Tokens []string `toml:"Tokens"`
	Fees   []uint32 `toml:"Fees"`
}

// Load loads the configuration from the given path, creating a commented
// default when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8545"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./migrator-data"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 5
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}
	for i := range cfg.Adapters {
		cfg.Adapters[i].Protocol = strings.ToLower(strings.TrimSpace(cfg.Adapters[i].Protocol))
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	normalize(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
