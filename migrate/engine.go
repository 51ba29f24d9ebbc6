package migrate

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"

	"github.com/woof-software/migrator-v2-sub003/adapter"
	"github.com/woof-software/migrator-v2-sub003/convert"
	"github.com/woof-software/migrator-v2-sub003/ledger"
	"github.com/woof-software/migrator-v2-sub003/observability"
	"github.com/woof-software/migrator-v2-sub003/storage"
	"github.com/woof-software/migrator-v2-sub003/swap"
	"github.com/woof-software/migrator-v2-sub003/token"
)

// AdapterExecutor runs one protocol's share of a migration. The engine treats
// adapters as opaque executors keyed by address.
type AdapterExecutor interface {
	ExecuteMigration(user common.Address, market ledger.Comet, migrationData, flashData []byte, preBaseBalance *big.Int) error
}

// cometBinding ties a destination market to its flash liquidity.
type cometBinding struct {
	market ledger.Comet
	pool   FlashPool
	base   common.Address
}

// Engine orchestrates migrations: it validates the request, commits to the
// callback payload, requests the flash loan and dispatches the adapter from
// inside the callback. A failed migration reverts the ledger snapshot taken
// before the loan, so partial effects never survive.
type Engine struct {
	mu sync.Mutex

	tokens   *token.Ledger
	owner    common.Address
	treasury common.Address

	paused   bool
	adapters map[common.Address]AdapterExecutor
	comets   map[common.Address]*cometBinding

	// pendingHash commits to exactly one in-flight callback payload.
	pendingHash common.Hash
	lastFee     *big.Int

	store   storage.Database
	metrics *observability.MigrationMetrics
	admin   *observability.AdminMetrics
	emit    func(Event)
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine constructs an orchestrator spending from treasury and
// administered by owner.
func NewEngine(tokens *token.Ledger, owner, treasury common.Address) (*Engine, error) {
	if tokens == nil || owner == (common.Address{}) || treasury == (common.Address{}) {
		return nil, ErrInvalidFlashConfig
	}
	return &Engine{
		tokens:   tokens,
		owner:    owner,
		treasury: treasury,
		adapters: make(map[common.Address]AdapterExecutor),
		comets:   make(map[common.Address]*cometBinding),
		logger:   slog.Default(),
		now:      time.Now,
	}, nil
}

// SetStore wires the persistence backend for registrations and the
// executed-migration journal.
func (e *Engine) SetStore(store storage.Database) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
}

// SetLogger overrides the engine logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger
}

// SetClock overrides the time source, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	if e == nil || now == nil {
		return
	}
	e.now = now
}

// SetEmitter wires the event sink invoked after each completed migration.
func (e *Engine) SetEmitter(emit func(Event)) {
	if e == nil {
		return
	}
	e.emit = emit
}

// SetMetrics wires the prometheus registries. Left unset, the engine stays
// silent rather than registering collectors implicitly.
func (e *Engine) SetMetrics(migrations *observability.MigrationMetrics, admin *observability.AdminMetrics) {
	if e == nil {
		return
	}
	e.metrics = migrations
	e.admin = admin
}

// Treasury returns the execution account flash proceeds land on.
func (e *Engine) Treasury() common.Address {
	return e.treasury
}

// Migrate runs one debt migration for user through the registered adapter
// into the configured comet market, flash-borrowing flashAmount of the
// market's base token. On success it returns the journaled migration id.
func (e *Engine) Migrate(user, adapterAddr, cometAddr common.Address, migrationData []byte, flashAmount *big.Int) (uuid.UUID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return uuid.Nil, ErrPaused
	}
	if _, ok := e.adapters[adapterAddr]; !ok {
		return uuid.Nil, ErrInvalidAdapter
	}
	binding, ok := e.comets[cometAddr]
	if !ok {
		return uuid.Nil, ErrCometNotSupported
	}
	if len(migrationData) == 0 {
		return uuid.Nil, ErrInvalidMigrationData
	}
	if _, err := adapter.DecodePosition(migrationData); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidMigrationData, err)
	}
	if flashAmount == nil || flashAmount.Sign() <= 0 {
		return uuid.Nil, ErrInvalidFlashAmount
	}

	payload, err := EncodeCallbackContext(&CallbackContext{
		User:          user,
		Adapter:       adapterAddr,
		Comet:         cometAddr,
		MigrationData: migrationData,
		FlashAmount:   flashAmount,
	})
	if err != nil {
		return uuid.Nil, err
	}

	amount0, amount1 := new(big.Int), new(big.Int)
	if binding.pool.Token0() == binding.base {
		amount0 = flashAmount
	} else {
		amount1 = flashAmount
	}

	e.pendingHash = CallbackHash(payload)
	e.lastFee = nil
	snapshot := e.tokens.Snapshot()
	started := e.now()

	err = binding.pool.Flash(e.treasury, amount0, amount1, payload)
	if err == nil && e.pendingHash != (common.Hash{}) {
		err = errCallbackNotInvoked
	}
	if err != nil {
		e.tokens.Revert(snapshot)
		e.pendingHash = common.Hash{}
		e.metrics.RecordFailure(adapterAddr.Hex(), reasonLabel(err))
		e.logger.Warn("migration reverted",
			slog.String("adapter", adapterAddr.Hex()),
			slog.String("comet", cometAddr.Hex()),
			slog.String("error", err.Error()),
		)
		return uuid.Nil, err
	}

	fee := e.lastFee
	if fee == nil {
		fee = new(big.Int)
	}
	id := uuid.New()
	completed := e.now()
	if err := e.journal(id, user, adapterAddr, cometAddr, flashAmount, fee, completed); err != nil {
		e.logger.Error("journal migration", slog.String("error", err.Error()))
	}
	e.metrics.RecordExecuted(adapterAddr.Hex(), cometAddr.Hex(), completed.Sub(started))
	if e.emit != nil {
		e.emit(Event{
			ID:          id,
			User:        user,
			Adapter:     adapterAddr,
			Comet:       cometAddr,
			FlashAmount: new(big.Int).Set(flashAmount),
			Fee:         fee,
			Timestamp:   completed,
		})
	}
	e.logger.Info("migration executed",
		slog.String("migration", id.String()),
		slog.String("adapter", adapterAddr.Hex()),
		slog.String("comet", cometAddr.Hex()),
		slog.String("flash_amount", flashAmount.String()),
	)
	return id, nil
}

// FlashCallback receives the flash loan. It verifies the caller and the
// payload commitment, clears the commitment so the payload cannot replay,
// then hands control to the adapter.
func (e *Engine) FlashCallback(caller common.Address, fee0, fee1 *big.Int, data []byte) error {
	ctx, err := DecodeCallbackContext(data)
	if err != nil {
		return err
	}
	binding, ok := e.comets[ctx.Comet]
	if !ok {
		return ErrCometNotConfigured
	}
	if caller != binding.pool.Address() {
		return ErrSenderNotAllowed
	}
	if e.pendingHash == (common.Hash{}) || CallbackHash(data) != e.pendingHash {
		return ErrInvalidCallbackHash
	}
	e.pendingHash = common.Hash{}

	fee := fee1
	if binding.pool.Token0() == binding.base {
		fee = fee0
	}
	if fee == nil {
		fee = new(big.Int)
	}
	amountWithFee := new(big.Int).Add(ctx.FlashAmount, fee)

	flashData, err := adapter.EncodeFlashData(&adapter.FlashData{
		Pool:          binding.pool.Address(),
		Token:         binding.base,
		AmountWithFee: amountWithFee,
	})
	if err != nil {
		return err
	}

	executor, ok := e.adapters[ctx.Adapter]
	if !ok {
		return ErrInvalidAdapter
	}

	// The loan already landed on the treasury; anything that was there
	// before it stays out of the residual calculation.
	preBase := new(big.Int).Sub(e.tokens.BalanceOf(binding.base, e.treasury), ctx.FlashAmount)
	if preBase.Sign() < 0 {
		preBase = new(big.Int)
	}

	if err := executor.ExecuteMigration(ctx.User, binding.market, ctx.MigrationData, flashData, preBase); err != nil {
		return err
	}
	e.lastFee = fee
	return nil
}

func (e *Engine) journal(id uuid.UUID, user, adapterAddr, cometAddr common.Address, flashAmount, fee *big.Int, at time.Time) error {
	if e.store == nil {
		return nil
	}
	record := &MigrationRecord{
		ID:          id,
		User:        user,
		Adapter:     adapterAddr,
		Comet:       cometAddr,
		FlashAmount: new(big.Int).Set(flashAmount),
		Fee:         new(big.Int).Set(fee),
		Timestamp:   uint64(at.Unix()),
	}
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	return e.store.Put(migrationKey(record.ID), encoded)
}

// reasonLabel compresses an error chain into one of a fixed set of metric
// labels. Context-carrying errors collapse onto their class so label
// cardinality stays bounded.
func reasonLabel(err error) string {
	var debt *adapter.DebtNotClearedError
	var conversion *convert.ConversionFailedError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidCallbackHash):
		return "callback_hash"
	case errors.Is(err, ErrSenderNotAllowed):
		return "sender"
	case errors.Is(err, ErrFlashNotRepaid):
		return "flash_not_repaid"
	case errors.Is(err, errCallbackNotInvoked):
		return "no_callback"
	case errors.Is(err, ErrCometNotConfigured):
		return "comet_not_configured"
	case errors.As(err, &debt):
		return "debt_not_cleared"
	case errors.As(err, &conversion):
		return "conversion_failed"
	case errors.Is(err, adapter.ErrConversionTargetMismatch):
		return "conversion_target"
	case errors.Is(err, adapter.ErrSwapTargetMismatch):
		return "swap_target"
	case errors.Is(err, adapter.ErrFlashTokenMismatch):
		return "flash_token"
	case errors.Is(err, swap.ErrSwapFailed):
		return "swap_failed"
	case errors.Is(err, swap.ErrInvalidSwapDeadline):
		return "swap_deadline"
	default:
		return "other"
	}
}

var _ FlashBorrower = (*Engine)(nil)
