package swap

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

type moduleFixture struct {
	tokens  *token.Ledger
	module  *Module
	router  *StaticRouter
	account common.Address
	dai     common.Address
	weth    common.Address
	path    []byte
}

func newModuleFixture(t *testing.T) *moduleFixture {
	t.Helper()
	tokens := token.NewLedger()
	routerAddr := pathAddr(0xF0)
	account := pathAddr(0xA0)
	dai := pathAddr(0x01)
	weth := pathAddr(0x02)

	clock := func() uint64 { return 1_000 }
	router := NewStaticRouter(tokens, routerAddr, clock)
	// 1 WETH = 2000 DAI in both directions.
	router.AddPool(weth, dai, 3000, big.NewRat(2000, 1))
	router.AddPool(dai, weth, 3000, big.NewRat(1, 2000))

	if err := tokens.Mint(dai, routerAddr, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("mint router dai: %v", err)
	}
	if err := tokens.Mint(weth, routerAddr, big.NewInt(1_000)); err != nil {
		t.Fatalf("mint router weth: %v", err)
	}

	module := NewModule(tokens, router, routerAddr, account)
	module.SetClock(func() time.Time { return time.Unix(1_000, 0) })

	path, err := EncodePath([]common.Address{weth, dai}, []uint32{3000})
	if err != nil {
		t.Fatalf("encode path: %v", err)
	}
	return &moduleFixture{
		tokens:  tokens,
		module:  module,
		router:  router,
		account: account,
		dai:     dai,
		weth:    weth,
		path:    path,
	}
}

func TestSwapExactInValidation(t *testing.T) {
	fix := newModuleFixture(t)
	deadline := uint64(2_000)

	if _, err := fix.module.SwapExactIn(nil, big.NewInt(1), big.NewInt(1), deadline); !errors.Is(err, ErrEmptySwapPath) {
		t.Fatalf("expected ErrEmptySwapPath, got %v", err)
	}
	if _, err := fix.module.SwapExactIn(fix.path, big.NewInt(0), big.NewInt(1), deadline); !errors.Is(err, ErrZeroAmountIn) {
		t.Fatalf("expected ErrZeroAmountIn, got %v", err)
	}
	if _, err := fix.module.SwapExactIn(fix.path, big.NewInt(1), nil, deadline); !errors.Is(err, ErrZeroAmountOutMinimum) {
		t.Fatalf("expected ErrZeroAmountOutMinimum, got %v", err)
	}
	if _, err := fix.module.SwapExactIn(fix.path, big.NewInt(1), big.NewInt(1), 999); !errors.Is(err, ErrInvalidSwapDeadline) {
		t.Fatalf("expected ErrInvalidSwapDeadline, got %v", err)
	}
	if _, err := fix.module.SwapExactIn(fix.path, big.NewInt(1), big.NewInt(1), 0); !errors.Is(err, ErrInvalidSwapDeadline) {
		t.Fatalf("expected ErrInvalidSwapDeadline for zero deadline, got %v", err)
	}
}

func TestSwapExactOutValidation(t *testing.T) {
	fix := newModuleFixture(t)
	deadline := uint64(2_000)

	if _, err := fix.module.SwapExactOut(nil, big.NewInt(1), big.NewInt(1), deadline); !errors.Is(err, ErrEmptySwapPath) {
		t.Fatalf("expected ErrEmptySwapPath, got %v", err)
	}
	if _, err := fix.module.SwapExactOut(fix.path, nil, big.NewInt(1), deadline); !errors.Is(err, ErrZeroAmountOut) {
		t.Fatalf("expected ErrZeroAmountOut, got %v", err)
	}
	if _, err := fix.module.SwapExactOut(fix.path, big.NewInt(1), big.NewInt(0), deadline); !errors.Is(err, ErrZeroAmountInMaximum) {
		t.Fatalf("expected ErrZeroAmountInMaximum, got %v", err)
	}
}

func TestSwapExactInSettles(t *testing.T) {
	fix := newModuleFixture(t)
	if err := fix.tokens.Mint(fix.weth, fix.account, big.NewInt(3)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	out, err := fix.module.SwapExactIn(fix.path, big.NewInt(2), big.NewInt(3_900), 2_000)
	if err != nil {
		t.Fatalf("swap exact in: %v", err)
	}
	if out.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("expected 4000 DAI out, got %s", out)
	}
	if got := fix.tokens.BalanceOf(fix.weth, fix.account); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected 1 WETH left, got %s", got)
	}
	if got := fix.tokens.BalanceOf(fix.dai, fix.account); got.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("expected 4000 DAI held, got %s", got)
	}
}

func TestSwapExactOutSettles(t *testing.T) {
	fix := newModuleFixture(t)
	if err := fix.tokens.Mint(fix.weth, fix.account, big.NewInt(3)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	in, err := fix.module.SwapExactOut(fix.path, big.NewInt(2_000), big.NewInt(2), 2_000)
	if err != nil {
		t.Fatalf("swap exact out: %v", err)
	}
	if in.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected 1 WETH in, got %s", in)
	}
	if got := fix.tokens.BalanceOf(fix.dai, fix.account); got.Cmp(big.NewInt(2_000)) != 0 {
		t.Fatalf("expected 2000 DAI held, got %s", got)
	}
}

func TestSwapLeavesNoDanglingAllowance(t *testing.T) {
	fix := newModuleFixture(t)
	if err := fix.tokens.Mint(fix.weth, fix.account, big.NewInt(3)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := fix.module.SwapExactIn(fix.path, big.NewInt(1), big.NewInt(1), 2_000); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if got := fix.tokens.Allowance(fix.weth, fix.account, fix.router.address); got.Sign() != 0 {
		t.Fatalf("expected zero allowance after success, got %s", got)
	}

	// Force a router failure via an impossible floor and confirm the
	// allowance is still revoked.
	if _, err := fix.module.SwapExactIn(fix.path, big.NewInt(1), big.NewInt(10_000_000), 2_000); !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed, got %v", err)
	}
	if got := fix.tokens.Allowance(fix.weth, fix.account, fix.router.address); got.Sign() != 0 {
		t.Fatalf("expected zero allowance after failure, got %s", got)
	}
}

func TestSwapExactOutRespectsMaximum(t *testing.T) {
	fix := newModuleFixture(t)
	if err := fix.tokens.Mint(fix.weth, fix.account, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	// 5000 DAI needs 3 WETH; cap at 2.
	if _, err := fix.module.SwapExactOut(fix.path, big.NewInt(5_000), big.NewInt(2), 2_000); !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed, got %v", err)
	}
}
