package adapter

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/convert"
	"github.com/woof-software/migrator-v2-sub003/ledger"
	"github.com/woof-software/migrator-v2-sub003/swap"
	"github.com/woof-software/migrator-v2-sub003/token"
)

// Config wires one adapter engine to its source protocol and the shared
// execution context.
type Config struct {
	// Source is the lending ledger positions migrate out of.
	Source ledger.Source
	// Tokens is the shared token ledger.
	Tokens *token.Ledger
	// Swapper executes router swaps from the execution account.
	Swapper *swap.Module
	// Converter bridges the stable pair; a disabled module is acceptable
	// when the deployment has no bridge.
	Converter *convert.Module
	// Account is the execution account the adapter spends from. The
	// orchestrator passes its own treasury so flash proceeds are directly
	// spendable, mirroring delegated-call semantics.
	Account common.Address
	// FullMigration requires every repaid instrument to end at zero debt.
	FullMigration bool
}

// Engine translates "repay debt, migrate collateral, settle the flash loan"
// into calls against one source protocol. It is stateless between calls;
// everything mutable lives on the shared token ledger so the orchestrator's
// snapshot covers it.
type Engine struct {
	source        ledger.Source
	tokens        *token.Ledger
	swapper       *swap.Module
	converter     *convert.Module
	account       common.Address
	fullMigration bool
	logger        *slog.Logger
}

// New constructs an adapter engine from the supplied wiring.
func New(cfg Config) (*Engine, error) {
	if cfg.Source == nil || cfg.Tokens == nil || cfg.Swapper == nil || cfg.Converter == nil {
		return nil, ErrNotConfigured
	}
	if cfg.Account == (common.Address{}) {
		return nil, ErrNotConfigured
	}
	return &Engine{
		source:        cfg.Source,
		tokens:        cfg.Tokens,
		swapper:       cfg.Swapper,
		converter:     cfg.Converter,
		account:       cfg.Account,
		fullMigration: cfg.FullMigration,
		logger:        slog.Default(),
	}, nil
}

// SetLogger overrides the engine logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger
}

// FullMigration reports whether the engine requires debts to clear fully.
func (e *Engine) FullMigration() bool {
	return e.fullMigration
}

// ExecuteMigration walks the encoded position: repays every borrow, moves
// every collateral item into the destination ledger, then settles the flash
// loan described by flashData. preBaseBalance is the execution account's
// base-asset balance before flash proceeds arrived; anything above it at the
// end is supplied back to the user rather than left idle. Any failure aborts
// the whole call; the orchestrator reverts the ledger snapshot.
func (e *Engine) ExecuteMigration(user common.Address, comet ledger.Comet, migrationData, flashData []byte, preBaseBalance *big.Int) error {
	position, err := DecodePosition(migrationData)
	if err != nil {
		return err
	}
	if preBaseBalance == nil {
		preBaseBalance = new(big.Int)
	}

	for i := range position.Borrows {
		if err := e.repayBorrow(user, &position.Borrows[i]); err != nil {
			return fmt.Errorf("repay borrow %d: %w", i, err)
		}
	}
	for i := range position.Collaterals {
		if err := e.migrateCollateral(user, comet, &position.Collaterals[i]); err != nil {
			return fmt.Errorf("migrate collateral %d: %w", i, err)
		}
	}
	if len(flashData) > 0 {
		if err := e.repayFlashloan(user, comet, flashData, preBaseBalance); err != nil {
			return fmt.Errorf("settle flash loan: %w", err)
		}
	}
	return nil
}

func (e *Engine) repayBorrow(user common.Address, borrow *Borrow) error {
	repayAsset, err := e.source.DebtAsset(borrow.Ref)
	if err != nil {
		return err
	}
	amount, err := borrow.Amount.Resolve(func() (*big.Int, error) {
		return e.source.Debt(user, borrow.Ref)
	})
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}

	if len(borrow.Swap.Path) > 0 {
		if e.converter.IsConversionPath(borrow.Swap.Path) {
			if err := e.convertTo(borrow.Swap.Path, repayAsset, amount); err != nil {
				return err
			}
		} else {
			_, terminal, err := swap.PathEndpoints(borrow.Swap.Path)
			if err != nil {
				return err
			}
			if terminal != repayAsset {
				return ErrSwapTargetMismatch
			}
			if _, err := e.swapper.SwapExactOut(borrow.Swap.Path, amount, borrow.Swap.Limit, borrow.Swap.Deadline); err != nil {
				return err
			}
		}
	}

	if err := e.withAllowance(repayAsset, e.source.Address(), amount, func() error {
		_, err := e.source.Repay(e.account, user, borrow.Ref, amount)
		return err
	}); err != nil {
		return err
	}

	if e.fullMigration {
		residual, err := e.source.Debt(user, borrow.Ref)
		if err != nil {
			return err
		}
		if residual.Sign() > 0 {
			return &DebtNotClearedError{Ref: borrow.Ref}
		}
	}
	return nil
}

func (e *Engine) migrateCollateral(user common.Address, comet ledger.Comet, collateral *Collateral) error {
	amount, err := collateral.Amount.Resolve(func() (*big.Int, error) {
		return e.source.Collateral(user, collateral.Ref)
	})
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}

	// Pull the receipt token from the user first where the protocol issues
	// one; protocols without receipts authorize the withdrawal directly.
	instrument, hasInstrument, err := e.source.InstrumentToken(collateral.Ref)
	if err != nil {
		return err
	}
	if hasInstrument {
		if err := e.tokens.TransferFrom(instrument, e.account, user, e.account, amount); err != nil {
			return err
		}
	}
	withdrawn, err := e.source.WithdrawCollateral(e.account, user, collateral.Ref, amount, e.account)
	if err != nil {
		return err
	}
	asset, err := e.source.CollateralAsset(collateral.Ref)
	if err != nil {
		return err
	}

	supplyAsset, supplyAmount := asset, withdrawn
	if len(collateral.Swap.Path) > 0 {
		if e.converter.IsConversionPath(collateral.Swap.Path) {
			out, err := e.converter.Convert(asset, withdrawn)
			if err != nil {
				return err
			}
			counterpart, _ := e.converter.Counterpart(asset)
			supplyAsset, supplyAmount = counterpart, out
		} else {
			out, err := e.swapper.SwapExactIn(collateral.Swap.Path, withdrawn, collateral.Swap.Limit, collateral.Swap.Deadline)
			if err != nil {
				return err
			}
			_, swapOut, err := swap.PathEndpoints(collateral.Swap.Path)
			if err != nil {
				return err
			}
			supplyAsset, supplyAmount = swapOut, out
		}
	}

	// One further bridge hop when the result is the off-leg of the stable
	// pair and the destination accounts in the other leg.
	if counterpart, ok := e.converter.Counterpart(supplyAsset); ok && counterpart == comet.BaseToken() {
		out, err := e.converter.Convert(supplyAsset, supplyAmount)
		if err != nil {
			return err
		}
		supplyAsset, supplyAmount = counterpart, out
	}

	return e.withAllowance(supplyAsset, comet.Address(), supplyAmount, func() error {
		return comet.SupplyTo(e.account, user, supplyAsset, supplyAmount)
	})
}

func (e *Engine) repayFlashloan(user common.Address, comet ledger.Comet, flashData []byte, preBaseBalance *big.Int) error {
	settlement, err := DecodeFlashData(flashData)
	if err != nil {
		return err
	}
	base := comet.BaseToken()

	ownBalance := e.tokens.BalanceOf(settlement.Token, e.account)
	if ownBalance.Cmp(settlement.AmountWithFee) < 0 {
		withdrawal := ShortfallWithdrawal(ownBalance, settlement.AmountWithFee, comet.BorrowBalanceOf(user), comet.BaseBorrowMin())
		if settlement.Token != base {
			counterpart, ok := e.converter.Counterpart(settlement.Token)
			if !ok || counterpart != base {
				return ErrFlashTokenMismatch
			}
			if err := comet.WithdrawFrom(e.account, user, e.account, base, withdrawal); err != nil {
				return err
			}
			if _, err := e.converter.Convert(base, withdrawal); err != nil {
				return err
			}
		} else {
			if err := comet.WithdrawFrom(e.account, user, e.account, base, withdrawal); err != nil {
				return err
			}
		}
	}

	if err := e.tokens.Transfer(settlement.Token, e.account, settlement.Pool, settlement.AmountWithFee); err != nil {
		return err
	}

	// Convert any leftover flash tokens back to base before returning
	// residuals to the user.
	if settlement.Token != base {
		leftover := e.tokens.BalanceOf(settlement.Token, e.account)
		if leftover.Sign() > 0 {
			if _, err := e.converter.Convert(settlement.Token, leftover); err != nil {
				return err
			}
		}
	}

	residual := new(big.Int).Sub(e.tokens.BalanceOf(base, e.account), preBaseBalance)
	if residual.Sign() > 0 {
		return e.withAllowance(base, comet.Address(), residual, func() error {
			return comet.SupplyTo(e.account, user, base, residual)
		})
	}
	return nil
}

// convertTo routes a conversion-path repay acquisition through the bridge
// and checks the output leg is the asset the repay needs.
func (e *Engine) convertTo(path []byte, want common.Address, amount *big.Int) error {
	from, to, _ := convert.ParseConversionPath(path)
	if to != want {
		return ErrConversionTargetMismatch
	}
	_, err := e.converter.Convert(from, amount)
	return err
}

// withAllowance grants spender an exact allowance scoped to one call and
// revokes whatever remains afterwards, success or failure.
func (e *Engine) withAllowance(asset, spender common.Address, amount *big.Int, call func() error) error {
	if err := e.tokens.Approve(asset, e.account, spender, amount); err != nil {
		return err
	}
	err := call()
	if revokeErr := e.tokens.Approve(asset, e.account, spender, big.NewInt(0)); revokeErr != nil && err == nil {
		err = revokeErr
	}
	return err
}
