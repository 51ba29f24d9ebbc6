package adapter

import "math/big"

// ShortfallWithdrawal sizes the base-asset withdrawal needed from the user's
// destination account so the adapter can cover repayAmount, while respecting
// the ledger's minimum borrow floor. The result w satisfies
// ownBalance + w >= repayAmount and currentBorrow + w is either zero or at
// least baseBorrowMin: the ledger must never be left with a dust borrow, and
// no more is borrowed than the floor forces.
func ShortfallWithdrawal(ownBalance, repayAmount, currentBorrow, baseBorrowMin *big.Int) *big.Int {
	if ownBalance.Cmp(repayAmount) >= 0 {
		return new(big.Int)
	}
	shortfall := new(big.Int).Sub(repayAmount, ownBalance)

	projected := new(big.Int).Add(currentBorrow, shortfall)
	if projected.Cmp(baseBorrowMin) >= 0 {
		return shortfall
	}
	if currentBorrow.Sign() == 0 {
		// No open borrow and the shortfall alone would sit under the floor:
		// establish a borrow exactly at the minimum.
		return new(big.Int).Set(baseBorrowMin)
	}
	// An open borrow would land under the floor: withdraw enough to put the
	// new borrow exactly at the minimum.
	return new(big.Int).Sub(baseBorrowMin, currentBorrow)
}
