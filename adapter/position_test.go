package adapter

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/ledger"
)

func testAddr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestPositionRoundTrip(t *testing.T) {
	position := &Position{
		Borrows: []Borrow{
			{
				Ref:    ledger.TokenRef(testAddr(0x01)),
				Amount: FullAmount(),
				Swap:   SwapSpec{Path: []byte{0x01, 0x02}, Deadline: 1234, Limit: big.NewInt(500)},
			},
			{
				Ref:    ledger.MarketIDRef(common.HexToHash("0xbeef")),
				Amount: ExactAmount(big.NewInt(77)),
			},
		},
		Collaterals: []Collateral{
			{
				Ref:    ledger.TokenRef(testAddr(0x02)),
				Amount: ExactAmount(big.NewInt(1_000)),
				Swap:   SwapSpec{Limit: big.NewInt(900)},
			},
		},
	}

	encoded, err := EncodePosition(position)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodePosition(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(decoded.Borrows) != 2 || len(decoded.Collaterals) != 1 {
		t.Fatalf("unexpected shape: %d borrows, %d collaterals", len(decoded.Borrows), len(decoded.Collaterals))
	}
	if !decoded.Borrows[0].Amount.All {
		t.Fatalf("expected full-amount sentinel on first borrow")
	}
	if decoded.Borrows[1].Amount.All || decoded.Borrows[1].Amount.Value.Cmp(big.NewInt(77)) != 0 {
		t.Fatalf("expected exact amount 77, got %+v", decoded.Borrows[1].Amount)
	}
	if decoded.Borrows[1].Ref.MarketID != common.HexToHash("0xbeef") {
		t.Fatalf("market id mismatch: %x", decoded.Borrows[1].Ref.MarketID)
	}
	if decoded.Collaterals[0].Swap.Limit.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("limit mismatch: %s", decoded.Collaterals[0].Swap.Limit)
	}
}

func TestDecodePositionRejectsGarbage(t *testing.T) {
	if _, err := DecodePosition([]byte{0xFF, 0x00, 0x12}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestFlashDataRoundTrip(t *testing.T) {
	data := &FlashData{
		Pool:          testAddr(0xF1),
		Token:         testAddr(0x03),
		AmountWithFee: big.NewInt(500_450),
	}
	encoded, err := EncodeFlashData(data)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeFlashData(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Pool != data.Pool || decoded.Token != data.Token || decoded.AmountWithFee.Cmp(data.AmountWithFee) != 0 {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}

	if _, err := DecodeFlashData([]byte{0x01}); !errors.Is(err, ErrInvalidFlashData) {
		t.Fatalf("expected ErrInvalidFlashData, got %v", err)
	}
}

func TestAmountResolve(t *testing.T) {
	exact := ExactAmount(big.NewInt(42))
	got, err := exact.Resolve(func() (*big.Int, error) { return big.NewInt(999), nil })
	if err != nil {
		t.Fatalf("resolve exact: %v", err)
	}
	if got.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected 42, got %s", got)
	}

	full := FullAmount()
	got, err = full.Resolve(func() (*big.Int, error) { return big.NewInt(999), nil })
	if err != nil {
		t.Fatalf("resolve full: %v", err)
	}
	if got.Cmp(big.NewInt(999)) != 0 {
		t.Fatalf("expected 999, got %s", got)
	}
}
