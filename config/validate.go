package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks field shapes that Load cannot default away. Address fields
// may be empty (the section is then unconfigured) but never malformed.
func Validate(cfg *Config) error {
	if err := checkAddress("Owner", cfg.Owner); err != nil {
		return err
	}
	if err := checkAddress("Treasury", cfg.Treasury); err != nil {
		return err
	}

	bridgeFields := []string{cfg.Bridge.Address, cfg.Bridge.TokenA, cfg.Bridge.TokenB}
	bridgeSet := 0
	for _, field := range bridgeFields {
		if strings.TrimSpace(field) != "" {
			bridgeSet++
		}
	}
	if bridgeSet != 0 && bridgeSet != len(bridgeFields) {
		return fmt.Errorf("bridge: Address, TokenA and TokenB must be set together")
	}
	if err := checkAddress("Bridge.Address", cfg.Bridge.Address); err != nil {
		return err
	}
	if err := checkAddress("Bridge.TokenA", cfg.Bridge.TokenA); err != nil {
		return err
	}
	if err := checkAddress("Bridge.TokenB", cfg.Bridge.TokenB); err != nil {
		return err
	}
	if err := checkAddress("Router.Address", cfg.Router.Address); err != nil {
		return err
	}

	for i, comet := range cfg.Comets {
		for field, value := range map[string]string{
			"Address":     comet.Address,
			"BaseToken":   comet.BaseToken,
			"FlashPool":   comet.FlashPool,
			"FlashToken0": comet.FlashToken0,
			"FlashToken1": comet.FlashToken1,
		} {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("comets[%d]: %s is required", i, field)
			}
			if err := checkAddress(fmt.Sprintf("comets[%d].%s", i, field), value); err != nil {
				return err
			}
		}
		if comet.FlashToken0 != comet.BaseToken && comet.FlashToken1 != comet.BaseToken {
			return fmt.Errorf("comets[%d]: flash pool does not carry the base token", i)
		}
	}

	for i, adapter := range cfg.Adapters {
		if strings.TrimSpace(adapter.Address) == "" {
			return fmt.Errorf("adapters[%d]: Address is required", i)
		}
		if err := checkAddress(fmt.Sprintf("adapters[%d].Address", i), adapter.Address); err != nil {
			return err
		}
		switch adapter.Protocol {
		case "aave", "spark", "morpho":
		default:
			return fmt.Errorf("adapters[%d]: unknown protocol %q", i, adapter.Protocol)
		}
	}

	for i, route := range cfg.Routes {
		if len(route.Tokens) < 2 || len(route.Fees) != len(route.Tokens)-1 {
			return fmt.Errorf("routes[%d]: need N tokens and N-1 fees", i)
		}
		for j, tok := range route.Tokens {
			if err := checkAddress(fmt.Sprintf("routes[%d].Tokens[%d]", i, j), tok); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkAddress(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s: %q is not a hex address", field, value)
	}
	return nil
}
