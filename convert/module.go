package convert

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

var (
	// ErrConverterConfigMismatch indicates a partially configured bridge pair:
	// conversion is either fully enabled or fully disabled, never in between.
	ErrConverterConfigMismatch = errors.New("convert: converter configuration mismatch")
	// ErrConversionDisabled indicates a conversion was requested while the
	// module is configured without a bridge.
	ErrConversionDisabled = errors.New("convert: conversion disabled")
	// ErrZeroConversionAmount indicates a zero conversion amount.
	ErrZeroConversionAmount = errors.New("convert: amount is zero")
	// ErrUnknownConversionToken indicates the requested token is neither leg
	// of the configured pair.
	ErrUnknownConversionToken = errors.New("convert: token not part of bridge pair")
)

// ConversionFailedError reports a bridge that returned a different amount
// than it was handed. The pair is assumed to convert 1:1.
type ConversionFailedError struct {
	Expected *big.Int
	Actual   *big.Int
}

func (e *ConversionFailedError) Error() string {
	return fmt.Sprintf("convert: conversion failed: expected %s, received %s", e.Expected, e.Actual)
}

// Bridge is the stablecoin-conversion capability for one fixed pair. The
// implementation pulls the input token from `from` via allowance and credits
// the output token back to the same account.
type Bridge interface {
	AToB(from common.Address, amount *big.Int) error
	BToA(from common.Address, amount *big.Int) error
}

// Module wraps a 1:1 stablecoin bridge (DAI/USDS-style) for one account.
// A nil bridge with zero token addresses disables conversion entirely.
type Module struct {
	tokens        *token.Ledger
	bridge        Bridge
	bridgeAddress common.Address
	tokenA        common.Address
	tokenB        common.Address
	account       common.Address
}

// NewModule constructs a conversion module. Configuration must be all-or-
// nothing: either bridge and both (distinct) token addresses are set, or all
// of them are zero.
func NewModule(tokens *token.Ledger, bridge Bridge, bridgeAddress, tokenA, tokenB, account common.Address) (*Module, error) {
	zeroA := tokenA == (common.Address{})
	zeroB := tokenB == (common.Address{})
	if bridge == nil {
		if !zeroA || !zeroB || bridgeAddress != (common.Address{}) {
			return nil, ErrConverterConfigMismatch
		}
	} else {
		if zeroA || zeroB || tokenA == tokenB || bridgeAddress == (common.Address{}) {
			return nil, ErrConverterConfigMismatch
		}
	}
	return &Module{
		tokens:        tokens,
		bridge:        bridge,
		bridgeAddress: bridgeAddress,
		tokenA:        tokenA,
		tokenB:        tokenB,
		account:       account,
	}, nil
}

// Enabled reports whether a bridge pair is configured.
func (m *Module) Enabled() bool {
	return m != nil && m.bridge != nil
}

// Pair returns the configured bridge pair.
func (m *Module) Pair() (common.Address, common.Address) {
	return m.tokenA, m.tokenB
}

// ConvertAToB converts amount of token A into token B and returns the amount
// received, which must equal the input exactly.
func (m *Module) ConvertAToB(amount *big.Int) (*big.Int, error) {
	return m.convert(amount, m.tokenA, m.tokenB, func(from common.Address, amount *big.Int) error {
		return m.bridge.AToB(from, amount)
	})
}

// ConvertBToA converts amount of token B into token A and returns the amount
// received.
func (m *Module) ConvertBToA(amount *big.Int) (*big.Int, error) {
	return m.convert(amount, m.tokenB, m.tokenA, func(from common.Address, amount *big.Int) error {
		return m.bridge.BToA(from, amount)
	})
}

// Convert converts amount of tokenIn into the other leg of the pair,
// whichever direction that is.
func (m *Module) Convert(tokenIn common.Address, amount *big.Int) (*big.Int, error) {
	switch tokenIn {
	case m.tokenA:
		return m.ConvertAToB(amount)
	case m.tokenB:
		return m.ConvertBToA(amount)
	default:
		return nil, ErrUnknownConversionToken
	}
}

// Counterpart returns the opposite leg of the pair for tokenIn, and whether
// tokenIn is part of the pair at all.
func (m *Module) Counterpart(tokenIn common.Address) (common.Address, bool) {
	if !m.Enabled() {
		return common.Address{}, false
	}
	switch tokenIn {
	case m.tokenA:
		return m.tokenB, true
	case m.tokenB:
		return m.tokenA, true
	default:
		return common.Address{}, false
	}
}

func (m *Module) convert(amount *big.Int, tokenIn, tokenOut common.Address, call func(common.Address, *big.Int) error) (*big.Int, error) {
	if !m.Enabled() {
		return nil, ErrConversionDisabled
	}
	if amount == nil || amount.Sign() == 0 {
		return nil, ErrZeroConversionAmount
	}

	before := m.tokens.BalanceOf(tokenOut, m.account)

	if err := m.tokens.Approve(tokenIn, m.account, m.bridgeAddress, amount); err != nil {
		return nil, err
	}
	err := call(m.account, amount)
	if revokeErr := m.tokens.Approve(tokenIn, m.account, m.bridgeAddress, big.NewInt(0)); revokeErr != nil && err == nil {
		err = revokeErr
	}
	if err != nil {
		return nil, err
	}

	received := new(big.Int).Sub(m.tokens.BalanceOf(tokenOut, m.account), before)
	if received.Cmp(amount) != 0 {
		return nil, &ConversionFailedError{Expected: new(big.Int).Set(amount), Actual: received}
	}
	return received, nil
}
