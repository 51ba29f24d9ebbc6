package token

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	errInvalidAmount         = errors.New("token ledger: amount must be positive")
	ErrInsufficientBalance   = errors.New("token ledger: insufficient balance")
	ErrInsufficientAllowance = errors.New("token ledger: insufficient allowance")
)

type balanceKey struct {
	token  common.Address
	holder common.Address
}

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

// Ledger is an in-memory ERC20-style accounting surface. Every balance the
// settlement engine touches during a migration lives here, so a single
// snapshot/revert pair gives the whole migration all-or-nothing semantics.
type Ledger struct {
	mu         sync.RWMutex
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

// Mint credits freshly created units of token to holder.
func (l *Ledger) Mint(token, holder common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{token: token, holder: holder}
	l.balances[key] = new(big.Int).Add(l.balance(key), amount)
	return nil
}

// Burn destroys units of token held by holder.
func (l *Ledger) Burn(token, holder common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{token: token, holder: holder}
	current := l.balance(key)
	if current.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[key] = new(big.Int).Sub(current, amount)
	return nil
}

// BalanceOf returns the holder's balance of token. The returned value is a
// copy and safe to mutate.
func (l *Ledger) BalanceOf(token, holder common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balance(balanceKey{token: token, holder: holder}))
}

// Transfer moves amount of token from one holder to another.
func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(token, from, to, amount)
}

// Approve sets the allowance granted by owner to spender for token. A zero
// amount clears the allowance entirely.
func (l *Ledger) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := allowanceKey{token: token, owner: owner, spender: spender}
	if amount.Sign() == 0 {
		delete(l.allowances, key)
		return nil
	}
	l.allowances[key] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns the remaining allowance owner has granted spender.
func (l *Ledger) Allowance(token, owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	current, ok := l.allowances[allowanceKey{token: token, owner: owner, spender: spender}]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(current)
}

// TransferFrom moves amount of token from owner to recipient on behalf of
// spender, consuming the owner's allowance. A spender moving its own funds
// does not need an allowance.
func (l *Ledger) TransferFrom(token, spender, owner, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if spender != owner {
		key := allowanceKey{token: token, owner: owner, spender: spender}
		remaining, ok := l.allowances[key]
		if !ok || remaining.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		updated := new(big.Int).Sub(remaining, amount)
		if updated.Sign() == 0 {
			delete(l.allowances, key)
		} else {
			l.allowances[key] = updated
		}
	}
	return l.move(token, owner, to, amount)
}

func (l *Ledger) balance(key balanceKey) *big.Int {
	if current, ok := l.balances[key]; ok {
		return current
	}
	return big.NewInt(0)
}

func (l *Ledger) move(token, from, to common.Address, amount *big.Int) error {
	fromKey := balanceKey{token: token, holder: from}
	current := l.balance(fromKey)
	if current.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[fromKey] = new(big.Int).Sub(current, amount)
	toKey := balanceKey{token: token, holder: to}
	l.balances[toKey] = new(big.Int).Add(l.balance(toKey), amount)
	return nil
}
