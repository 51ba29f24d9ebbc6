package token

import "math/big"

// Snapshot is a full copy of the ledger state at one instant. It is opaque to
// callers and only meaningful when handed back to Revert on the ledger that
// produced it.
type Snapshot struct {
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
}

// Snapshot captures the current state of every balance and allowance.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap := &Snapshot{
		balances:   make(map[balanceKey]*big.Int, len(l.balances)),
		allowances: make(map[allowanceKey]*big.Int, len(l.allowances)),
	}
	for key, value := range l.balances {
		snap.balances[key] = new(big.Int).Set(value)
	}
	for key, value := range l.allowances {
		snap.allowances[key] = new(big.Int).Set(value)
	}
	return snap
}

// Revert discards the current state and restores the supplied snapshot. A nil
// snapshot is a no-op.
func (l *Ledger) Revert(snap *Snapshot) {
	if snap == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[balanceKey]*big.Int, len(snap.balances))
	l.allowances = make(map[allowanceKey]*big.Int, len(snap.allowances))
	for key, value := range snap.balances {
		l.balances[key] = new(big.Int).Set(value)
	}
	for key, value := range snap.allowances {
		l.allowances[key] = new(big.Int).Set(value)
	}
}
