// Package ledger defines the lending-protocol capabilities the settlement
// engine migrates between, plus in-memory reference implementations used by
// tests and local simulation. Reference ledgers keep every position as marker
// token balances on the shared token ledger, so a single ledger snapshot
// rolls back protocol state and token balances together.
package ledger

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnknownMarket indicates the reference does not resolve to a
	// configured market or reserve.
	ErrUnknownMarket = errors.New("ledger: unknown market")
	// ErrNoDebt indicates a repay against a zero debt balance.
	ErrNoDebt = errors.New("ledger: no outstanding debt")
	// ErrBorrowTooSmall indicates a withdrawal would open a base borrow below
	// the ledger's minimum borrow floor.
	ErrBorrowTooSmall = errors.New("ledger: borrow below minimum")
	// ErrNotAuthorized indicates the caller may not act on the user's
	// position.
	ErrNotAuthorized = errors.New("ledger: caller not authorized for user")
)

// MarketRef identifies one debt or collateral instrument on a source
// protocol. Aave- and Spark-shaped pools key reserves by token address;
// Morpho-shaped ledgers key markets by identifier. Exactly one of the two
// fields is meaningful per protocol.
type MarketRef struct {
	Token    common.Address
	MarketID common.Hash
}

// TokenRef builds a reference for token-keyed protocols.
func TokenRef(token common.Address) MarketRef {
	return MarketRef{Token: token}
}

// MarketIDRef builds a reference for market-id-keyed protocols.
func MarketIDRef(id common.Hash) MarketRef {
	return MarketRef{MarketID: id}
}

// Source is the capability a protocol adapter needs from the ledger a
// position migrates out of. Protocol quirks (rate modes, market shapes) live
// behind the bindings, not in the adapter.
type Source interface {
	// Address is the account that pulls repayments and holds liquidity;
	// callers grant it scoped allowances.
	Address() common.Address
	// DebtAsset resolves the asset used to repay debt under ref.
	DebtAsset(ref MarketRef) (common.Address, error)
	// CollateralAsset resolves the underlying asset released when collateral
	// under ref is withdrawn.
	CollateralAsset(ref MarketRef) (common.Address, error)
	// InstrumentToken returns the transferable receipt token for collateral
	// under ref (an aToken), or false when the protocol tracks collateral
	// without one.
	InstrumentToken(ref MarketRef) (common.Address, bool, error)
	// Debt returns the user's current outstanding debt under ref.
	Debt(user common.Address, ref MarketRef) (*big.Int, error)
	// Collateral returns the user's current collateral balance under ref.
	Collateral(user common.Address, ref MarketRef) (*big.Int, error)
	// Repay pays down the user's debt under ref with funds pulled from
	// payer, capped at the outstanding amount. Returns the amount repaid.
	Repay(payer, user common.Address, ref MarketRef, amount *big.Int) (*big.Int, error)
	// WithdrawCollateral releases amount of collateral under ref to
	// recipient. The caller either surrendered the instrument token
	// beforehand or is authorized to act for the user.
	WithdrawCollateral(caller, user common.Address, ref MarketRef, amount *big.Int, recipient common.Address) (*big.Int, error)
}

// Comet is the destination-ledger capability. The base account is signed in
// effect: a user either supplies base or borrows it, never both.
type Comet interface {
	// Address is the account that pulls supplied assets; callers grant it
	// scoped allowances.
	Address() common.Address
	BaseToken() common.Address
	BaseBorrowMin() *big.Int
	// SupplyTo credits dst with amount of asset pulled from `from`.
	SupplyTo(from, dst, asset common.Address, amount *big.Int) error
	// WithdrawFrom debits src's balance of asset and sends it to recipient.
	// Withdrawing base beyond the supplied balance opens a borrow, which
	// must land at or above BaseBorrowMin.
	WithdrawFrom(caller, src, recipient, asset common.Address, amount *big.Int) error
	BorrowBalanceOf(user common.Address) *big.Int
	CollateralBalanceOf(user, asset common.Address) *big.Int
}
