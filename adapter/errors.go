package adapter

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/ledger"
)

var (
	// ErrNotConfigured indicates a required collaborator was not wired.
	ErrNotConfigured = errors.New("adapter: engine not fully configured")
	// ErrFlashTokenMismatch indicates the flash-loan token is neither the
	// destination base asset nor its bridge counterpart, so the settlement
	// shortfall cannot be sourced.
	ErrFlashTokenMismatch = errors.New("adapter: flash token unrelated to destination base asset")
	// ErrConversionTargetMismatch indicates a conversion path whose output
	// leg is not the token the step needs.
	ErrConversionTargetMismatch = errors.New("adapter: conversion output does not match required token")
	// ErrSwapTargetMismatch indicates a swap path whose terminal token is
	// not the token the step needs.
	ErrSwapTargetMismatch = errors.New("adapter: swap output does not match required token")
)

// DebtNotClearedError reports a full migration that left residual debt on
// the source ledger.
type DebtNotClearedError struct {
	Ref ledger.MarketRef
}

func (e *DebtNotClearedError) Error() string {
	if e.Ref.MarketID != (common.Hash{}) {
		return fmt.Sprintf("adapter: debt not cleared for market %x", e.Ref.MarketID)
	}
	return fmt.Sprintf("adapter: debt not cleared for token %s", e.Ref.Token)
}
