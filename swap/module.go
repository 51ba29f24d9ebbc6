package swap

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

var (
	// ErrZeroAmountIn indicates an exact-input swap was requested with a zero
	// input amount.
	ErrZeroAmountIn = errors.New("swap: amount in is zero")
	// ErrZeroAmountOut indicates an exact-output swap was requested with a
	// zero output amount.
	ErrZeroAmountOut = errors.New("swap: amount out is zero")
	// ErrEmptySwapPath indicates the hop sequence was empty.
	ErrEmptySwapPath = errors.New("swap: empty swap path")
	// ErrZeroAmountOutMinimum indicates an exact-input swap carried no
	// slippage floor.
	ErrZeroAmountOutMinimum = errors.New("swap: amount out minimum is zero")
	// ErrZeroAmountInMaximum indicates an exact-output swap carried no
	// spending ceiling.
	ErrZeroAmountInMaximum = errors.New("swap: amount in maximum is zero")
	// ErrInvalidSwapDeadline indicates the deadline already passed.
	ErrInvalidSwapDeadline = errors.New("swap: invalid deadline")
	// ErrSwapFailed wraps any failure reported by the underlying router.
	ErrSwapFailed = errors.New("swap: router swap failed")
)

// maxAllowance mirrors the unbounded ERC20 approval granted to routers for
// the duration of a single swap.
var maxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Module executes swaps on behalf of one account against a Router capability.
// Allowances to the router are granted immediately before each swap and zeroed
// immediately after, success or failure, so no allowance outlives the call.
type Module struct {
	tokens        *token.Ledger
	router        Router
	routerAddress common.Address
	account       common.Address
	logger        *slog.Logger
	now           func() time.Time
}

// NewModule constructs a swap module spending from the supplied account.
func NewModule(tokens *token.Ledger, router Router, routerAddress, account common.Address) *Module {
	return &Module{
		tokens:        tokens,
		router:        router,
		routerAddress: routerAddress,
		account:       account,
		logger:        slog.Default(),
		now:           time.Now,
	}
}

// SetLogger overrides the module logger.
func (m *Module) SetLogger(logger *slog.Logger) {
	if m == nil || logger == nil {
		return
	}
	m.logger = logger
}

// SetClock overrides the module clock, primarily for deterministic testing.
func (m *Module) SetClock(now func() time.Time) {
	if m == nil || now == nil {
		return
	}
	m.now = now
}

// Account returns the account the module spends from.
func (m *Module) Account() common.Address {
	return m.account
}

// SwapExactIn spends exactly amountIn of the path's first token and returns
// the realised output amount, which is guaranteed to be at least
// amountOutMinimum. The path is ordered input token first.
func (m *Module) SwapExactIn(path []byte, amountIn, amountOutMinimum *big.Int, deadline uint64) (*big.Int, error) {
	if len(path) == 0 {
		return nil, ErrEmptySwapPath
	}
	if amountIn == nil || amountIn.Sign() == 0 {
		return nil, ErrZeroAmountIn
	}
	if amountOutMinimum == nil || amountOutMinimum.Sign() == 0 {
		return nil, ErrZeroAmountOutMinimum
	}
	if err := m.checkDeadline(deadline); err != nil {
		return nil, err
	}
	tokenIn, _, err := PathEndpoints(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSwapFailed, err)
	}

	amountOut, err := m.withAllowance(tokenIn, func() (*big.Int, error) {
		return m.router.ExactInput(ExactInputParams{
			Path:             path,
			Payer:            m.account,
			Recipient:        m.account,
			AmountIn:         amountIn,
			AmountOutMinimum: amountOutMinimum,
			Deadline:         deadline,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSwapFailed, err)
	}
	if amountOut == nil || amountOut.Cmp(amountOutMinimum) < 0 {
		return nil, fmt.Errorf("%w: output below minimum", ErrSwapFailed)
	}
	return amountOut, nil
}

// SwapExactOut acquires exactly amountOut of the path's last token, spending
// at most amountInMaximum of the first. The realised input amount is
// returned. The path is ordered input token first; the router receives it
// output first per its exact-output convention.
func (m *Module) SwapExactOut(path []byte, amountOut, amountInMaximum *big.Int, deadline uint64) (*big.Int, error) {
	if len(path) == 0 {
		return nil, ErrEmptySwapPath
	}
	if amountOut == nil || amountOut.Sign() == 0 {
		return nil, ErrZeroAmountOut
	}
	if amountInMaximum == nil || amountInMaximum.Sign() == 0 {
		return nil, ErrZeroAmountInMaximum
	}
	if err := m.checkDeadline(deadline); err != nil {
		return nil, err
	}
	tokenIn, _, err := PathEndpoints(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSwapFailed, err)
	}
	reversed, err := ReversePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSwapFailed, err)
	}

	amountIn, err := m.withAllowance(tokenIn, func() (*big.Int, error) {
		return m.router.ExactOutput(ExactOutputParams{
			Path:            reversed,
			Payer:           m.account,
			Recipient:       m.account,
			AmountOut:       amountOut,
			AmountInMaximum: amountInMaximum,
			Deadline:        deadline,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSwapFailed, err)
	}
	if amountIn == nil || amountIn.Cmp(amountInMaximum) > 0 {
		return nil, fmt.Errorf("%w: input above maximum", ErrSwapFailed)
	}
	return amountIn, nil
}

func (m *Module) withAllowance(tokenIn common.Address, call func() (*big.Int, error)) (*big.Int, error) {
	if err := m.tokens.Approve(tokenIn, m.account, m.routerAddress, maxAllowance); err != nil {
		return nil, err
	}
	amount, err := call()
	if revokeErr := m.tokens.Approve(tokenIn, m.account, m.routerAddress, big.NewInt(0)); revokeErr != nil && err == nil {
		err = revokeErr
	}
	if err != nil {
		return nil, err
	}
	return amount, nil
}

func (m *Module) checkDeadline(deadline uint64) error {
	if deadline == 0 || int64(deadline) <= m.now().Unix() {
		return ErrInvalidSwapDeadline
	}
	return nil
}
