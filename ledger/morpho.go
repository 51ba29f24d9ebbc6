package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

// MarketParams describes one isolated Morpho market.
type MarketParams struct {
	LoanToken       common.Address
	CollateralToken common.Address
}

type morphoMarket struct {
	params     MarketParams
	debtMarker common.Address
	collMarker common.Address
}

// Morpho is a Morpho-shaped reference source ledger: isolated markets keyed
// by identifier, no transferable receipt token, collateral moved on the
// user's behalf by authorized callers.
type Morpho struct {
	tokens    *token.Ledger
	address   common.Address
	markets   map[common.Hash]morphoMarket
	operators map[common.Address]map[common.Address]bool
}

// NewMorpho constructs a ledger holding its liquidity at address.
func NewMorpho(tokens *token.Ledger, address common.Address) *Morpho {
	return &Morpho{
		tokens:    tokens,
		address:   address,
		markets:   make(map[common.Hash]morphoMarket),
		operators: make(map[common.Address]map[common.Address]bool),
	}
}

// Address returns the ledger's liquidity account.
func (m *Morpho) Address() common.Address {
	return m.address
}

// CreateMarket registers an isolated market under id.
func (m *Morpho) CreateMarket(id common.Hash, params MarketParams) {
	m.markets[id] = morphoMarket{
		params:     params,
		debtMarker: markerAddress("morpho/debt", id.Bytes()),
		collMarker: markerAddress("morpho/collateral", id.Bytes()),
	}
}

// Authorize lets operator manage the user's positions, mirroring Morpho's
// setAuthorization.
func (m *Morpho) Authorize(user, operator common.Address) {
	if m.operators[user] == nil {
		m.operators[user] = make(map[common.Address]bool)
	}
	m.operators[user][operator] = true
}

func (m *Morpho) authorized(caller, user common.Address) bool {
	if caller == user {
		return true
	}
	return m.operators[user][caller]
}

// SupplyCollateral locks amount of the market's collateral token for user,
// pulled from `from`.
func (m *Morpho) SupplyCollateral(from, user common.Address, id common.Hash, amount *big.Int) error {
	market, ok := m.markets[id]
	if !ok {
		return ErrUnknownMarket
	}
	if err := m.tokens.TransferFrom(market.params.CollateralToken, m.address, from, m.address, amount); err != nil {
		return err
	}
	return m.tokens.Mint(market.collMarker, user, amount)
}

// Borrow lends amount of the market's loan token to user.
func (m *Morpho) Borrow(user common.Address, id common.Hash, amount *big.Int) error {
	market, ok := m.markets[id]
	if !ok {
		return ErrUnknownMarket
	}
	if err := m.tokens.Mint(market.debtMarker, user, amount); err != nil {
		return err
	}
	return m.tokens.Transfer(market.params.LoanToken, m.address, user, amount)
}

func (m *Morpho) DebtAsset(ref MarketRef) (common.Address, error) {
	market, ok := m.markets[ref.MarketID]
	if !ok {
		return common.Address{}, ErrUnknownMarket
	}
	return market.params.LoanToken, nil
}

func (m *Morpho) CollateralAsset(ref MarketRef) (common.Address, error) {
	market, ok := m.markets[ref.MarketID]
	if !ok {
		return common.Address{}, ErrUnknownMarket
	}
	return market.params.CollateralToken, nil
}

// InstrumentToken always reports false: Morpho positions are not receipts.
func (m *Morpho) InstrumentToken(ref MarketRef) (common.Address, bool, error) {
	if _, ok := m.markets[ref.MarketID]; !ok {
		return common.Address{}, false, ErrUnknownMarket
	}
	return common.Address{}, false, nil
}

func (m *Morpho) Debt(user common.Address, ref MarketRef) (*big.Int, error) {
	market, ok := m.markets[ref.MarketID]
	if !ok {
		return nil, ErrUnknownMarket
	}
	return m.tokens.BalanceOf(market.debtMarker, user), nil
}

func (m *Morpho) Collateral(user common.Address, ref MarketRef) (*big.Int, error) {
	market, ok := m.markets[ref.MarketID]
	if !ok {
		return nil, ErrUnknownMarket
	}
	return m.tokens.BalanceOf(market.collMarker, user), nil
}

// Repay pays down the user's market debt with loan tokens pulled from payer.
func (m *Morpho) Repay(payer, user common.Address, ref MarketRef, amount *big.Int) (*big.Int, error) {
	market, ok := m.markets[ref.MarketID]
	if !ok {
		return nil, ErrUnknownMarket
	}
	debt := m.tokens.BalanceOf(market.debtMarker, user)
	if debt.Sign() == 0 {
		return nil, ErrNoDebt
	}
	repaid := new(big.Int).Set(amount)
	if repaid.Cmp(debt) > 0 {
		repaid = debt
	}
	if err := m.tokens.TransferFrom(market.params.LoanToken, m.address, payer, m.address, repaid); err != nil {
		return nil, err
	}
	if err := m.tokens.Burn(market.debtMarker, user, repaid); err != nil {
		return nil, err
	}
	return repaid, nil
}

// WithdrawCollateral releases the user's locked collateral to recipient. The
// caller must be the user or an authorized operator.
func (m *Morpho) WithdrawCollateral(caller, user common.Address, ref MarketRef, amount *big.Int, recipient common.Address) (*big.Int, error) {
	market, ok := m.markets[ref.MarketID]
	if !ok {
		return nil, ErrUnknownMarket
	}
	if !m.authorized(caller, user) {
		return nil, ErrNotAuthorized
	}
	if err := m.tokens.Burn(market.collMarker, user, amount); err != nil {
		return nil, err
	}
	if err := m.tokens.Transfer(market.params.CollateralToken, m.address, recipient, amount); err != nil {
		return nil, err
	}
	return new(big.Int).Set(amount), nil
}

var _ Source = (*Morpho)(nil)
