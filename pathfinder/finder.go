package pathfinder

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/convert"
	"github.com/woof-software/migrator-v2-sub003/swap"
)

// ErrNoRoute is returned when no registered route connects the pair.
var ErrNoRoute = errors.New("pathfinder: no route for pair")

// Quote is one executable route with its expected outcome.
type Quote struct {
	// Path is the encoded hop sequence, ready for the swap module, or a
	// two-address conversion path when the bridge serves the pair.
	Path []byte
	// AmountOut is the estimated output for the quoted input.
	AmountOut *big.Int
	// GasEstimate is a rough execution cost used to rank near-equal routes.
	GasEstimate uint64
}

// Finder quotes the best route between two tokens for a given input amount.
type Finder interface {
	BestRoute(tokenIn, tokenOut common.Address, amountIn *big.Int) (Quote, error)
}

const (
	gasPerHop        = 80_000
	gasPerConversion = 45_000
)

type route struct {
	tokens []common.Address
	fees   []uint32
	rates  []*big.Rat
}

type pair struct {
	in  common.Address
	out common.Address
}

// StaticFinder quotes from a fixed route table. Deployments feed it the
// routes they trust; it never discovers pools on its own.
type StaticFinder struct {
	routes    map[pair][]route
	converter *convert.Module
}

// NewStaticFinder constructs an empty finder. converter may be nil when the
// deployment has no stable bridge.
func NewStaticFinder(converter *convert.Module) *StaticFinder {
	return &StaticFinder{
		routes:    make(map[pair][]route),
		converter: converter,
	}
}

// AddRoute registers a hop sequence with per-hop rates. tokens carries one
// more entry than fees and rates.
func (f *StaticFinder) AddRoute(tokens []common.Address, fees []uint32, rates []*big.Rat) error {
	if len(tokens) < 2 || len(fees) != len(tokens)-1 || len(rates) != len(fees) {
		return ErrNoRoute
	}
	copied := route{
		tokens: append([]common.Address(nil), tokens...),
		fees:   append([]uint32(nil), fees...),
		rates:  make([]*big.Rat, len(rates)),
	}
	for i, rate := range rates {
		copied.rates[i] = new(big.Rat).Set(rate)
	}
	key := pair{in: tokens[0], out: tokens[len(tokens)-1]}
	f.routes[key] = append(f.routes[key], copied)
	return nil
}

// BestRoute returns the registered route with the highest estimated output.
// A bridge pair short-circuits to a conversion path: it is 1:1 and cheaper
// than any swap.
func (f *StaticFinder) BestRoute(tokenIn, tokenOut common.Address, amountIn *big.Int) (Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Quote{}, ErrNoRoute
	}
	if f.converter != nil && f.converter.Enabled() {
		if counterpart, ok := f.converter.Counterpart(tokenIn); ok && counterpart == tokenOut {
			return Quote{
				Path:        convert.EncodeConversionPath(tokenIn, tokenOut),
				AmountOut:   new(big.Int).Set(amountIn),
				GasEstimate: gasPerConversion,
			}, nil
		}
	}

	candidates, ok := f.routes[pair{in: tokenIn, out: tokenOut}]
	if !ok || len(candidates) == 0 {
		return Quote{}, ErrNoRoute
	}

	var best Quote
	var bestAmount *big.Int
	for _, candidate := range candidates {
		amount := estimate(candidate.rates, amountIn)
		if bestAmount != nil && amount.Cmp(bestAmount) <= 0 {
			continue
		}
		path, err := swap.EncodePath(candidate.tokens, candidate.fees)
		if err != nil {
			continue
		}
		bestAmount = amount
		best = Quote{
			Path:        path,
			AmountOut:   amount,
			GasEstimate: uint64(len(candidate.fees)) * gasPerHop,
		}
	}
	if bestAmount == nil {
		return Quote{}, ErrNoRoute
	}
	return best, nil
}

func estimate(rates []*big.Rat, amountIn *big.Int) *big.Int {
	amount := new(big.Int).Set(amountIn)
	for _, rate := range rates {
		scaled := new(big.Rat).Mul(new(big.Rat).SetInt(amount), rate)
		amount = new(big.Int).Quo(scaled.Num(), scaled.Denom())
	}
	return amount
}

var _ Finder = (*StaticFinder)(nil)
