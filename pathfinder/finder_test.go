package pathfinder

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/convert"
	"github.com/woof-software/migrator-v2-sub003/swap"
	"github.com/woof-software/migrator-v2-sub003/token"
)

func pfAddr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

var (
	pfWETH = pfAddr(0x01)
	pfDAI  = pfAddr(0x02)
	pfUSDS = pfAddr(0x03)
	pfUSDC = pfAddr(0x04)
)

func newConverter(t *testing.T) *convert.Module {
	t.Helper()
	tokens := token.NewLedger()
	bridge := convert.NewLedgerBridge(tokens, pfAddr(0x40), pfDAI, pfUSDS)
	converter, err := convert.NewModule(tokens, bridge, pfAddr(0x40), pfDAI, pfUSDS, pfAddr(0xEE))
	if err != nil {
		t.Fatalf("converter: %v", err)
	}
	return converter
}

func TestBestRoutePicksHighestOutput(t *testing.T) {
	finder := NewStaticFinder(nil)

	// Direct route at 1990 and a two-hop route worth 1995 per WETH.
	if err := finder.AddRoute(
		[]common.Address{pfWETH, pfUSDC},
		[]uint32{3000},
		[]*big.Rat{big.NewRat(1990, 1)},
	); err != nil {
		t.Fatalf("add direct: %v", err)
	}
	if err := finder.AddRoute(
		[]common.Address{pfWETH, pfDAI, pfUSDC},
		[]uint32{3000, 500},
		[]*big.Rat{big.NewRat(2000, 1), big.NewRat(999, 1001)},
	); err != nil {
		t.Fatalf("add two-hop: %v", err)
	}

	quote, err := finder.BestRoute(pfWETH, pfUSDC, big.NewInt(10))
	if err != nil {
		t.Fatalf("best route: %v", err)
	}
	tokens, fees, err := swap.DecodePath(quote.Path)
	if err != nil {
		t.Fatalf("decode path: %v", err)
	}
	if len(tokens) != 3 || tokens[1] != pfDAI {
		t.Fatalf("expected the two-hop route, got %v", tokens)
	}
	if len(fees) != 2 || fees[0] != 3000 || fees[1] != 500 {
		t.Fatalf("unexpected fees: %v", fees)
	}
	// 10 * 2000 = 20000, then * 999/1001 = 19960.03... floored.
	if quote.AmountOut.Cmp(big.NewInt(19_960)) != 0 {
		t.Fatalf("unexpected estimate: %s", quote.AmountOut)
	}
	if quote.GasEstimate != 2*gasPerHop {
		t.Fatalf("unexpected gas estimate: %d", quote.GasEstimate)
	}
}

func TestBestRouteBridgeShortcut(t *testing.T) {
	finder := NewStaticFinder(newConverter(t))

	// A registered swap route for the pair exists but the bridge wins.
	if err := finder.AddRoute(
		[]common.Address{pfDAI, pfUSDS},
		[]uint32{100},
		[]*big.Rat{big.NewRat(9_990, 10_000)},
	); err != nil {
		t.Fatalf("add route: %v", err)
	}

	quote, err := finder.BestRoute(pfDAI, pfUSDS, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("best route: %v", err)
	}
	from, to, ok := convert.ParseConversionPath(quote.Path)
	if !ok {
		t.Fatalf("expected a conversion path, got %x", quote.Path)
	}
	if from != pfDAI || to != pfUSDS {
		t.Fatalf("unexpected conversion legs: %x -> %x", from, to)
	}
	if quote.AmountOut.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("bridge is 1:1, got %s", quote.AmountOut)
	}
	if quote.GasEstimate != gasPerConversion {
		t.Fatalf("unexpected gas estimate: %d", quote.GasEstimate)
	}
}

func TestBestRouteErrors(t *testing.T) {
	finder := NewStaticFinder(nil)

	if _, err := finder.BestRoute(pfWETH, pfUSDC, big.NewInt(10)); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if _, err := finder.BestRoute(pfWETH, pfUSDC, big.NewInt(0)); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute for zero amount, got %v", err)
	}
	if err := finder.AddRoute([]common.Address{pfWETH}, nil, nil); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected rejection of malformed route, got %v", err)
	}
}
