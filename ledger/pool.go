package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

// reserve holds the receipt and debt instruments for one pooled asset.
type reserve struct {
	aToken    common.Address
	debtToken common.Address
}

// Pool is an Aave/Spark-shaped reference source ledger. Reserves are keyed by
// underlying token address; collateral is represented by a transferable
// receipt token and debt by a non-transferable debt marker.
type Pool struct {
	tokens   *token.Ledger
	address  common.Address
	label    string
	reserves map[common.Address]reserve
}

// NewPool constructs a pool holding its liquidity at address. The label
// namespaces instrument addresses so an Aave and a Spark pool over the same
// assets do not collide.
func NewPool(tokens *token.Ledger, address common.Address, label string) *Pool {
	return &Pool{
		tokens:   tokens,
		address:  address,
		label:    label,
		reserves: make(map[common.Address]reserve),
	}
}

// Address returns the pool's liquidity account.
func (p *Pool) Address() common.Address {
	return p.address
}

// AddReserve registers an asset and derives its instrument addresses.
func (p *Pool) AddReserve(asset common.Address) {
	p.reserves[asset] = reserve{
		aToken:    markerAddress(p.label+"/atoken", asset.Bytes()),
		debtToken: markerAddress(p.label+"/debt", asset.Bytes()),
	}
}

// AToken returns the receipt token address for asset.
func (p *Pool) AToken(asset common.Address) (common.Address, error) {
	res, ok := p.reserves[asset]
	if !ok {
		return common.Address{}, ErrUnknownMarket
	}
	return res.aToken, nil
}

// Supply pulls amount of asset from `from` and credits onBehalfOf with
// receipt tokens.
func (p *Pool) Supply(from, onBehalfOf, asset common.Address, amount *big.Int) error {
	res, ok := p.reserves[asset]
	if !ok {
		return ErrUnknownMarket
	}
	if err := p.tokens.TransferFrom(asset, p.address, from, p.address, amount); err != nil {
		return err
	}
	return p.tokens.Mint(res.aToken, onBehalfOf, amount)
}

// Borrow lends amount of asset to user against their pooled collateral.
func (p *Pool) Borrow(user, asset common.Address, amount *big.Int) error {
	res, ok := p.reserves[asset]
	if !ok {
		return ErrUnknownMarket
	}
	if err := p.tokens.Mint(res.debtToken, user, amount); err != nil {
		return err
	}
	return p.tokens.Transfer(asset, p.address, user, amount)
}

func (p *Pool) DebtAsset(ref MarketRef) (common.Address, error) {
	if _, ok := p.reserves[ref.Token]; !ok {
		return common.Address{}, ErrUnknownMarket
	}
	return ref.Token, nil
}

func (p *Pool) CollateralAsset(ref MarketRef) (common.Address, error) {
	if _, ok := p.reserves[ref.Token]; !ok {
		return common.Address{}, ErrUnknownMarket
	}
	return ref.Token, nil
}

func (p *Pool) InstrumentToken(ref MarketRef) (common.Address, bool, error) {
	res, ok := p.reserves[ref.Token]
	if !ok {
		return common.Address{}, false, ErrUnknownMarket
	}
	return res.aToken, true, nil
}

// Debt returns the user's variable debt for the referenced reserve.
func (p *Pool) Debt(user common.Address, ref MarketRef) (*big.Int, error) {
	res, ok := p.reserves[ref.Token]
	if !ok {
		return nil, ErrUnknownMarket
	}
	return p.tokens.BalanceOf(res.debtToken, user), nil
}

// Collateral returns the user's receipt-token balance for the referenced
// reserve.
func (p *Pool) Collateral(user common.Address, ref MarketRef) (*big.Int, error) {
	res, ok := p.reserves[ref.Token]
	if !ok {
		return nil, ErrUnknownMarket
	}
	return p.tokens.BalanceOf(res.aToken, user), nil
}

// Repay pays down the user's debt with the underlying asset pulled from
// payer, capped at the outstanding debt.
func (p *Pool) Repay(payer, user common.Address, ref MarketRef, amount *big.Int) (*big.Int, error) {
	res, ok := p.reserves[ref.Token]
	if !ok {
		return nil, ErrUnknownMarket
	}
	debt := p.tokens.BalanceOf(res.debtToken, user)
	if debt.Sign() == 0 {
		return nil, ErrNoDebt
	}
	repaid := new(big.Int).Set(amount)
	if repaid.Cmp(debt) > 0 {
		repaid = debt
	}
	if err := p.tokens.TransferFrom(ref.Token, p.address, payer, p.address, repaid); err != nil {
		return nil, err
	}
	if err := p.tokens.Burn(res.debtToken, user, repaid); err != nil {
		return nil, err
	}
	return repaid, nil
}

// WithdrawCollateral burns receipt tokens surrendered by the caller and
// releases the underlying asset to recipient.
func (p *Pool) WithdrawCollateral(caller, user common.Address, ref MarketRef, amount *big.Int, recipient common.Address) (*big.Int, error) {
	res, ok := p.reserves[ref.Token]
	if !ok {
		return nil, ErrUnknownMarket
	}
	if err := p.tokens.Burn(res.aToken, caller, amount); err != nil {
		return nil, err
	}
	if err := p.tokens.Transfer(ref.Token, p.address, recipient, amount); err != nil {
		return nil, err
	}
	return new(big.Int).Set(amount), nil
}

var _ Source = (*Pool)(nil)
