package adapter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/woof-software/migrator-v2-sub003/ledger"
)

// ErrInvalidPosition indicates a migration payload that does not decode into
// a position.
var ErrInvalidPosition = errors.New("adapter: invalid migration payload")

// ErrInvalidFlashData indicates a flash-settlement payload that does not
// decode.
var ErrInvalidFlashData = errors.New("adapter: invalid flash settlement payload")

// Amount is either a concrete quantity or the full outstanding balance,
// resolved against the source ledger at execution time.
type Amount struct {
	All   bool
	Value *big.Int
}

// ExactAmount wraps a concrete quantity.
func ExactAmount(value *big.Int) Amount {
	return Amount{Value: new(big.Int).Set(value)}
}

// FullAmount marks the whole outstanding balance.
func FullAmount() Amount {
	return Amount{All: true, Value: new(big.Int)}
}

// Resolve returns the concrete quantity, consulting query for the full
// balance when the sentinel is set.
func (a Amount) Resolve(query func() (*big.Int, error)) (*big.Int, error) {
	if a.All {
		return query()
	}
	if a.Value == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(a.Value), nil
}

// SwapSpec describes the optional in-flight conversion for one position
// item. An empty path means the token is used or supplied as-is. A two-hop
// fee-less path matching the configured bridge pair routes to the conversion
// module; anything else routes to the swap module. Limit is the
// amountInMaximum for borrows (exact-output) and the amountOutMinimum for
// collaterals (exact-input).
type SwapSpec struct {
	Path     []byte
	Deadline uint64
	Limit    *big.Int
}

// Borrow is one debt item to repay on the source ledger.
type Borrow struct {
	Ref    ledger.MarketRef
	Amount Amount
	Swap   SwapSpec
}

// Collateral is one collateral item to move to the destination ledger.
type Collateral struct {
	Ref    ledger.MarketRef
	Amount Amount
	Swap   SwapSpec
}

// Position is the unit of migration: the debts to repay and the collateral
// to move, in execution order.
type Position struct {
	Borrows     []Borrow
	Collaterals []Collateral
}

// EncodePosition serialises a position into the opaque migration payload the
// orchestrator threads through the flash round trip.
func EncodePosition(position *Position) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(position)
	if err != nil {
		return nil, fmt.Errorf("encode position: %w", err)
	}
	return encoded, nil
}

// DecodePosition parses a migration payload.
func DecodePosition(data []byte) (*Position, error) {
	position := new(Position)
	if err := rlp.DecodeBytes(data, position); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	return position, nil
}

// FlashData carries the settlement obligation for a flash loan: where to
// return funds, in which token, and how much including the fee.
type FlashData struct {
	Pool          common.Address
	Token         common.Address
	AmountWithFee *big.Int
}

// EncodeFlashData serialises the flash settlement payload.
func EncodeFlashData(data *FlashData) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(data)
	if err != nil {
		return nil, fmt.Errorf("encode flash data: %w", err)
	}
	return encoded, nil
}

// DecodeFlashData parses a flash settlement payload.
func DecodeFlashData(data []byte) (*FlashData, error) {
	decoded := new(FlashData)
	if err := rlp.DecodeBytes(data, decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlashData, err)
	}
	return decoded, nil
}
