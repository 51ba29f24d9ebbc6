package convert

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

// LedgerBridge is a reference Bridge that converts 1:1 against its own
// reserves on the shared token ledger. It stands in for an on-chain
// DAI/USDS-style converter in tests and local simulation.
type LedgerBridge struct {
	tokens  *token.Ledger
	address common.Address
	tokenA  common.Address
	tokenB  common.Address

	// shortfallBps, when nonzero, shorts the output by the given basis
	// points. Only useful for exercising conversion-mismatch handling.
	shortfallBps uint64
}

// NewLedgerBridge constructs a bridge holding reserves at address.
func NewLedgerBridge(tokens *token.Ledger, address, tokenA, tokenB common.Address) *LedgerBridge {
	return &LedgerBridge{tokens: tokens, address: address, tokenA: tokenA, tokenB: tokenB}
}

// SetShortfallBps makes the bridge return less than 1:1, for tests.
func (b *LedgerBridge) SetShortfallBps(bps uint64) { b.shortfallBps = bps }

// AToB pulls amount of token A from the caller and returns token B 1:1.
func (b *LedgerBridge) AToB(from common.Address, amount *big.Int) error {
	return b.exchange(from, b.tokenA, b.tokenB, amount)
}

// BToA pulls amount of token B from the caller and returns token A 1:1.
func (b *LedgerBridge) BToA(from common.Address, amount *big.Int) error {
	return b.exchange(from, b.tokenB, b.tokenA, amount)
}

func (b *LedgerBridge) exchange(from, tokenIn, tokenOut common.Address, amount *big.Int) error {
	if err := b.tokens.TransferFrom(tokenIn, b.address, from, b.address, amount); err != nil {
		return err
	}
	out := new(big.Int).Set(amount)
	if b.shortfallBps > 0 {
		cut := new(big.Int).Mul(amount, new(big.Int).SetUint64(b.shortfallBps))
		cut.Quo(cut, big.NewInt(10_000))
		out.Sub(out, cut)
	}
	return b.tokens.Transfer(tokenOut, b.address, from, out)
}
