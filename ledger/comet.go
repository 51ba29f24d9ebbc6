package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

// CometLedger is a reference destination ledger. The base account is a
// supply-or-borrow position: supplying base repays any open borrow first,
// and withdrawing past the supplied balance opens a borrow that must satisfy
// the minimum borrow floor.
type CometLedger struct {
	tokens        *token.Ledger
	address       common.Address
	baseToken     common.Address
	baseBorrowMin *big.Int

	supplyMarker common.Address
	debtMarker   common.Address

	operators map[common.Address]map[common.Address]bool
}

// NewCometLedger constructs a destination ledger holding reserves at address.
func NewCometLedger(tokens *token.Ledger, address, baseToken common.Address, baseBorrowMin *big.Int) *CometLedger {
	return &CometLedger{
		tokens:        tokens,
		address:       address,
		baseToken:     baseToken,
		baseBorrowMin: new(big.Int).Set(baseBorrowMin),
		supplyMarker:  markerAddress("comet/supply", address.Bytes()),
		debtMarker:    markerAddress("comet/debt", address.Bytes()),
		operators:     make(map[common.Address]map[common.Address]bool),
	}
}

// Allow lets operator move the user's balances, mirroring Comet's allow().
func (c *CometLedger) Allow(user, operator common.Address) {
	if c.operators[user] == nil {
		c.operators[user] = make(map[common.Address]bool)
	}
	c.operators[user][operator] = true
}

func (c *CometLedger) authorized(caller, user common.Address) bool {
	if caller == user {
		return true
	}
	return c.operators[user][caller]
}

// Address returns the ledger's reserve account.
func (c *CometLedger) Address() common.Address {
	return c.address
}

func (c *CometLedger) BaseToken() common.Address {
	return c.baseToken
}

func (c *CometLedger) BaseBorrowMin() *big.Int {
	return new(big.Int).Set(c.baseBorrowMin)
}

func (c *CometLedger) BorrowBalanceOf(user common.Address) *big.Int {
	return c.tokens.BalanceOf(c.debtMarker, user)
}

// BaseBalanceOf returns the user's supplied base balance.
func (c *CometLedger) BaseBalanceOf(user common.Address) *big.Int {
	return c.tokens.BalanceOf(c.supplyMarker, user)
}

func (c *CometLedger) CollateralBalanceOf(user, asset common.Address) *big.Int {
	return c.tokens.BalanceOf(c.collateralMarker(asset), user)
}

// SupplyTo pulls amount of asset from `from` and credits dst. Base supplied
// against an open borrow repays the borrow before crediting supply.
func (c *CometLedger) SupplyTo(from, dst, asset common.Address, amount *big.Int) error {
	if err := c.tokens.TransferFrom(asset, c.address, from, c.address, amount); err != nil {
		return err
	}
	if asset != c.baseToken {
		return c.tokens.Mint(c.collateralMarker(asset), dst, amount)
	}
	remaining := new(big.Int).Set(amount)
	debt := c.tokens.BalanceOf(c.debtMarker, dst)
	if debt.Sign() > 0 {
		repay := new(big.Int).Set(remaining)
		if repay.Cmp(debt) > 0 {
			repay = debt
		}
		if err := c.tokens.Burn(c.debtMarker, dst, repay); err != nil {
			return err
		}
		remaining.Sub(remaining, repay)
	}
	if remaining.Sign() > 0 {
		return c.tokens.Mint(c.supplyMarker, dst, remaining)
	}
	return nil
}

// WithdrawFrom debits src's asset balance towards recipient. A base
// withdrawal exceeding the supplied balance opens a borrow; the resulting
// borrow must be zero or at least BaseBorrowMin.
func (c *CometLedger) WithdrawFrom(caller, src, recipient, asset common.Address, amount *big.Int) error {
	if !c.authorized(caller, src) {
		return ErrNotAuthorized
	}
	if asset != c.baseToken {
		if err := c.tokens.Burn(c.collateralMarker(asset), src, amount); err != nil {
			return err
		}
		return c.tokens.Transfer(asset, c.address, recipient, amount)
	}

	supplied := c.tokens.BalanceOf(c.supplyMarker, src)
	fromSupply := new(big.Int).Set(amount)
	if fromSupply.Cmp(supplied) > 0 {
		fromSupply = supplied
	}
	borrowed := new(big.Int).Sub(amount, fromSupply)

	if borrowed.Sign() > 0 {
		projected := new(big.Int).Add(c.tokens.BalanceOf(c.debtMarker, src), borrowed)
		if projected.Cmp(c.baseBorrowMin) < 0 {
			return ErrBorrowTooSmall
		}
		if err := c.tokens.Mint(c.debtMarker, src, borrowed); err != nil {
			return err
		}
	}
	if fromSupply.Sign() > 0 {
		if err := c.tokens.Burn(c.supplyMarker, src, fromSupply); err != nil {
			return err
		}
	}
	return c.tokens.Transfer(c.baseToken, c.address, recipient, amount)
}

func (c *CometLedger) collateralMarker(asset common.Address) common.Address {
	seed := append(append([]byte{}, c.address.Bytes()...), asset.Bytes()...)
	return markerAddress("comet/collateral", seed)
}

var _ Comet = (*CometLedger)(nil)
