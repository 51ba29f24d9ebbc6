package migrate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

// FlashPool is the flash-liquidity capability. A pool lends its two tokens
// for the duration of one callback and expects the amount plus fee back
// before Flash returns.
type FlashPool interface {
	Address() common.Address
	Token0() common.Address
	Token1() common.Address
	Flash(recipient common.Address, amount0, amount1 *big.Int, data []byte) error
}

// FlashBorrower receives the loaned funds. caller is the pool's own address
// so the borrower can verify who is talking to it.
type FlashBorrower interface {
	FlashCallback(caller common.Address, fee0, fee1 *big.Int, data []byte) error
}

// LedgerFlashPool is a reference FlashPool settling against the shared token
// ledger. It charges a flat basis-point fee per side and verifies repayment
// when the callback returns.
type LedgerFlashPool struct {
	tokens   *token.Ledger
	address  common.Address
	token0   common.Address
	token1   common.Address
	feeBps   uint64
	borrower FlashBorrower
}

// NewLedgerFlashPool constructs a pool holding reserves at address.
func NewLedgerFlashPool(tokens *token.Ledger, address, token0, token1 common.Address, feeBps uint64) *LedgerFlashPool {
	return &LedgerFlashPool{
		tokens:  tokens,
		address: address,
		token0:  token0,
		token1:  token1,
		feeBps:  feeBps,
	}
}

// SetBorrower wires the callback target. The engine registers itself here.
func (p *LedgerFlashPool) SetBorrower(borrower FlashBorrower) {
	p.borrower = borrower
}

func (p *LedgerFlashPool) Address() common.Address { return p.address }
func (p *LedgerFlashPool) Token0() common.Address  { return p.token0 }
func (p *LedgerFlashPool) Token1() common.Address  { return p.token1 }

// Flash lends amount0/amount1 to recipient, invokes the borrower callback
// and verifies both sides came back with their fees.
func (p *LedgerFlashPool) Flash(recipient common.Address, amount0, amount1 *big.Int, data []byte) error {
	if p.borrower == nil {
		return errCallbackNotInvoked
	}
	if amount0 == nil {
		amount0 = new(big.Int)
	}
	if amount1 == nil {
		amount1 = new(big.Int)
	}

	before0 := p.tokens.BalanceOf(p.token0, p.address)
	before1 := p.tokens.BalanceOf(p.token1, p.address)
	fee0 := p.fee(amount0)
	fee1 := p.fee(amount1)

	if amount0.Sign() > 0 {
		if err := p.tokens.Transfer(p.token0, p.address, recipient, amount0); err != nil {
			return err
		}
	}
	if amount1.Sign() > 0 {
		if err := p.tokens.Transfer(p.token1, p.address, recipient, amount1); err != nil {
			return err
		}
	}

	if err := p.borrower.FlashCallback(p.address, fee0, fee1, data); err != nil {
		return err
	}

	owed0 := new(big.Int).Add(before0, fee0)
	owed1 := new(big.Int).Add(before1, fee1)
	if p.tokens.BalanceOf(p.token0, p.address).Cmp(owed0) < 0 {
		return ErrFlashNotRepaid
	}
	if p.tokens.BalanceOf(p.token1, p.address).Cmp(owed1) < 0 {
		return ErrFlashNotRepaid
	}
	return nil
}

// fee rounds the basis-point charge up so lending is never free.
func (p *LedgerFlashPool) fee(amount *big.Int) *big.Int {
	if amount.Sign() == 0 || p.feeBps == 0 {
		return new(big.Int)
	}
	charge := new(big.Int).Mul(amount, new(big.Int).SetUint64(p.feeBps))
	charge.Add(charge, big.NewInt(9_999))
	return charge.Quo(charge, big.NewInt(10_000))
}

var _ FlashPool = (*LedgerFlashPool)(nil)
