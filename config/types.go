package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// CometRuntime is the parsed form of one CometConfig.
type CometRuntime struct {
	Address       common.Address
	BaseToken     common.Address
	BaseBorrowMin *big.Int
	FlashPool     common.Address
	FlashToken0   common.Address
	FlashToken1   common.Address
	FlashFeeBps   uint64
}

// AdapterRuntime is the parsed form of one AdapterConfig.
type AdapterRuntime struct {
	Address       common.Address
	Protocol      string
	Pool          common.Address
	FullMigration bool
}

// RouteRuntime is the parsed form of one RouteConfig.
type RouteRuntime struct {
	Tokens []common.Address
	Fees   []uint32
}

// OwnerAddress parses the configured owner.
func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// TreasuryAddress parses the configured treasury.
func (c *Config) TreasuryAddress() common.Address {
	return common.HexToAddress(c.Treasury)
}

// BridgeEnabled reports whether the stable bridge is configured.
func (c *Config) BridgeEnabled() bool {
	return strings.TrimSpace(c.Bridge.Address) != ""
}

// CometRuntimes parses every configured market into runtime values.
func (c *Config) CometRuntimes() ([]CometRuntime, error) {
	out := make([]CometRuntime, 0, len(c.Comets))
	for i, comet := range c.Comets {
		borrowMin, err := parseAmount(comet.BaseBorrowMin)
		if err != nil {
			return nil, fmt.Errorf("comets[%d].BaseBorrowMin: %w", i, err)
		}
		out = append(out, CometRuntime{
			Address:       common.HexToAddress(comet.Address),
			BaseToken:     common.HexToAddress(comet.BaseToken),
			BaseBorrowMin: borrowMin,
			FlashPool:     common.HexToAddress(comet.FlashPool),
			FlashToken0:   common.HexToAddress(comet.FlashToken0),
			FlashToken1:   common.HexToAddress(comet.FlashToken1),
			FlashFeeBps:   comet.FlashFeeBps,
		})
	}
	return out, nil
}

// AdapterRuntimes parses every configured adapter.
func (c *Config) AdapterRuntimes() []AdapterRuntime {
	out := make([]AdapterRuntime, 0, len(c.Adapters))
	for _, adapter := range c.Adapters {
		out = append(out, AdapterRuntime{
			Address:       common.HexToAddress(adapter.Address),
			Protocol:      adapter.Protocol,
			Pool:          common.HexToAddress(adapter.Pool),
			FullMigration: adapter.FullMigration,
		})
	}
	return out
}

// RouteRuntimes parses every configured pathfinder route.
func (c *Config) RouteRuntimes() []RouteRuntime {
	out := make([]RouteRuntime, 0, len(c.Routes))
	for _, route := range c.Routes {
		parsed := RouteRuntime{
			Tokens: make([]common.Address, 0, len(route.Tokens)),
			Fees:   append([]uint32(nil), route.Fees...),
		}
		for _, tok := range route.Tokens {
			parsed.Tokens = append(parsed.Tokens, common.HexToAddress(tok))
		}
		out = append(out, parsed)
	}
	return out
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", value)
	}
	return amount, nil
}
