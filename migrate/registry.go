package migrate

import (
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/woof-software/migrator-v2-sub003/ledger"
)

// FlashView is the read-surface projection of one market's flash wiring.
type FlashView struct {
	Comet     common.Address
	Pool      common.Address
	Token0    common.Address
	Token1    common.Address
	BaseToken common.Address
}

// SetAdapter registers an adapter executor under its address. Owner only.
func (e *Engine) SetAdapter(caller, addr common.Address, executor AdapterExecutor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	if addr == (common.Address{}) || executor == nil {
		return ErrInvalidAdapter
	}
	if _, ok := e.adapters[addr]; ok {
		return ErrAdapterAlreadyAllowed
	}
	e.adapters[addr] = executor
	if e.store != nil {
		record := adapterRecord{Address: addr, AddedAt: uint64(e.now().Unix())}
		if encoded, err := rlp.EncodeToBytes(&record); err == nil {
			if err := e.store.Put(adapterKey(addr), encoded); err != nil {
				e.logger.Error("persist adapter", slog.String("error", err.Error()))
			}
		}
	}
	e.admin.RecordChange("set_adapter")
	e.logger.Info("adapter registered", slog.String("adapter", addr.Hex()))
	return nil
}

// RemoveAdapter deregisters an adapter. Owner only; permitted while paused so
// a misbehaving adapter can be pulled without resuming migrations.
func (e *Engine) RemoveAdapter(caller, addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	if _, ok := e.adapters[addr]; !ok {
		return ErrAdapterNotAllowed
	}
	delete(e.adapters, addr)
	if e.store != nil {
		if err := e.store.Delete(adapterKey(addr)); err != nil {
			e.logger.Error("remove adapter record", slog.String("error", err.Error()))
		}
	}
	e.admin.RecordChange("remove_adapter")
	e.logger.Info("adapter removed", slog.String("adapter", addr.Hex()))
	return nil
}

// Adapters returns the registered adapter addresses in stable order.
func (e *Engine) Adapters() []common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]common.Address, 0, len(e.adapters))
	for addr := range e.adapters {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hex() < out[j].Hex()
	})
	return out
}

// IsAdapter reports whether addr is a registered adapter.
func (e *Engine) IsAdapter(addr common.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.adapters[addr]
	return ok
}

// SetFlashData binds a destination market to its flash pool. The pool must
// carry the market's base token on one of its sides. Owner only.
func (e *Engine) SetFlashData(caller common.Address, market ledger.Comet, pool FlashPool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	if market == nil || pool == nil {
		return ErrInvalidFlashConfig
	}
	cometAddr := market.Address()
	if _, ok := e.comets[cometAddr]; ok {
		return ErrCometAlreadyConfigured
	}
	base := market.BaseToken()
	if pool.Token0() != base && pool.Token1() != base {
		return ErrInvalidFlashConfig
	}
	e.comets[cometAddr] = &cometBinding{market: market, pool: pool, base: base}
	if e.store != nil {
		record := flashRecord{
			Comet:   cometAddr,
			Pool:    pool.Address(),
			Token0:  pool.Token0(),
			Token1:  pool.Token1(),
			Base:    base,
			AddedAt: uint64(e.now().Unix()),
		}
		if encoded, err := rlp.EncodeToBytes(&record); err == nil {
			if err := e.store.Put(flashKey(cometAddr), encoded); err != nil {
				e.logger.Error("persist flash config", slog.String("error", err.Error()))
			}
		}
	}
	e.admin.RecordChange("set_flash_data")
	e.logger.Info("flash config set",
		slog.String("comet", cometAddr.Hex()),
		slog.String("pool", pool.Address().Hex()),
	)
	return nil
}

// RemoveFlashData unbinds a market's flash wiring. Owner only.
func (e *Engine) RemoveFlashData(caller, cometAddr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	if _, ok := e.comets[cometAddr]; !ok {
		return ErrCometNotConfigured
	}
	delete(e.comets, cometAddr)
	if e.store != nil {
		if err := e.store.Delete(flashKey(cometAddr)); err != nil {
			e.logger.Error("remove flash record", slog.String("error", err.Error()))
		}
	}
	e.admin.RecordChange("remove_flash_data")
	e.logger.Info("flash config removed", slog.String("comet", cometAddr.Hex()))
	return nil
}

// FlashConfig returns the flash wiring for one market.
func (e *Engine) FlashConfig(cometAddr common.Address) (FlashView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	binding, ok := e.comets[cometAddr]
	if !ok {
		return FlashView{}, false
	}
	return FlashView{
		Comet:     cometAddr,
		Pool:      binding.pool.Address(),
		Token0:    binding.pool.Token0(),
		Token1:    binding.pool.Token1(),
		BaseToken: binding.base,
	}, true
}

// FlashConfigs returns every configured market's wiring in stable order.
func (e *Engine) FlashConfigs() []FlashView {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]FlashView, 0, len(e.comets))
	for addr, binding := range e.comets {
		out = append(out, FlashView{
			Comet:     addr,
			Pool:      binding.pool.Address(),
			Token0:    binding.pool.Token0(),
			Token1:    binding.pool.Token1(),
			BaseToken: binding.base,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Comet.Hex() < out[j].Comet.Hex()
	})
	return out
}

// Pause halts migrations. Owner only.
func (e *Engine) Pause(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	e.paused = true
	e.logger.Warn("migrations paused")
	return nil
}

// Unpause resumes migrations. Owner only.
func (e *Engine) Unpause(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrUnauthorized
	}
	e.paused = false
	e.logger.Info("migrations resumed")
	return nil
}

// Paused reports whether migrations are halted.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}
