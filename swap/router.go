package swap

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/token"
)

// ExactInputParams describes a swap that spends a fixed input amount.
type ExactInputParams struct {
	// Path is the encoded hop sequence ordered input token first.
	Path []byte
	// Payer funds the swap; the router pulls the input via allowance.
	Payer common.Address
	// Recipient receives the output token.
	Recipient common.Address
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	Deadline         uint64
}

// ExactOutputParams describes a swap that acquires a fixed output amount.
type ExactOutputParams struct {
	// Path is the encoded hop sequence ordered output token first.
	Path []byte
	Payer            common.Address
	Recipient        common.Address
	AmountOut        *big.Int
	AmountInMaximum  *big.Int
	Deadline         uint64
}

// Router is the swap-execution capability. Implementations settle against the
// shared token ledger and return the realised amount on the free leg.
type Router interface {
	ExactInput(params ExactInputParams) (*big.Int, error)
	ExactOutput(params ExactOutputParams) (*big.Int, error)
}

var (
	errRouterNoPool   = errors.New("swap router: no pool for hop")
	errRouterExpired  = errors.New("swap router: deadline expired")
	errRouterSlippage = errors.New("swap router: amount outside limit")
)

type poolKey struct {
	tokenIn  common.Address
	tokenOut common.Address
	fee      uint32
}

// StaticRouter is a reference Router backed by fixed-rate pools. Rates are
// expressed as numerator/denominator pairs so integer amounts stay exact. It
// exists for tests and local simulation; production deployments satisfy Router
// with an on-chain binding.
type StaticRouter struct {
	tokens  *token.Ledger
	address common.Address
	rates   map[poolKey]*big.Rat
	now     func() uint64
}

// NewStaticRouter constructs a router settling against the supplied ledger.
// The router address is the account swaps route through; it must hold output
// liquidity for the pools it quotes.
func NewStaticRouter(tokens *token.Ledger, address common.Address, now func() uint64) *StaticRouter {
	return &StaticRouter{
		tokens:  tokens,
		address: address,
		rates:   make(map[poolKey]*big.Rat),
		now:     now,
	}
}

// AddPool registers a fixed conversion rate for a directed hop. Both
// directions must be added explicitly.
func (r *StaticRouter) AddPool(tokenIn, tokenOut common.Address, fee uint32, rate *big.Rat) {
	r.rates[poolKey{tokenIn: tokenIn, tokenOut: tokenOut, fee: fee}] = new(big.Rat).Set(rate)
}

// ExactInput walks the path hop by hop converting the input amount at each
// pool's rate.
func (r *StaticRouter) ExactInput(params ExactInputParams) (*big.Int, error) {
	if err := r.checkDeadline(params.Deadline); err != nil {
		return nil, err
	}
	tokens, fees, err := DecodePath(params.Path)
	if err != nil {
		return nil, err
	}
	amountOut, err := r.quoteForward(tokens, fees, params.AmountIn)
	if err != nil {
		return nil, err
	}
	if params.AmountOutMinimum != nil && amountOut.Cmp(params.AmountOutMinimum) < 0 {
		return nil, errRouterSlippage
	}
	if err := r.settle(tokens[0], tokens[len(tokens)-1], params.Payer, params.Recipient, params.AmountIn, amountOut); err != nil {
		return nil, err
	}
	return amountOut, nil
}

// ExactOutput computes the required input for the requested output. The path
// arrives output token first.
func (r *StaticRouter) ExactOutput(params ExactOutputParams) (*big.Int, error) {
	if err := r.checkDeadline(params.Deadline); err != nil {
		return nil, err
	}
	forward, err := ReversePath(params.Path)
	if err != nil {
		return nil, err
	}
	tokens, fees, err := DecodePath(forward)
	if err != nil {
		return nil, err
	}
	amountIn, err := r.quoteBackward(tokens, fees, params.AmountOut)
	if err != nil {
		return nil, err
	}
	if params.AmountInMaximum != nil && amountIn.Cmp(params.AmountInMaximum) > 0 {
		return nil, errRouterSlippage
	}
	if err := r.settle(tokens[0], tokens[len(tokens)-1], params.Payer, params.Recipient, amountIn, params.AmountOut); err != nil {
		return nil, err
	}
	return amountIn, nil
}

func (r *StaticRouter) quoteForward(tokens []common.Address, fees []uint32, amountIn *big.Int) (*big.Int, error) {
	amount := new(big.Int).Set(amountIn)
	for i := 0; i < len(fees); i++ {
		rate, ok := r.rates[poolKey{tokenIn: tokens[i], tokenOut: tokens[i+1], fee: fees[i]}]
		if !ok {
			return nil, errRouterNoPool
		}
		scaled := new(big.Rat).Mul(new(big.Rat).SetInt(amount), rate)
		amount = new(big.Int).Quo(scaled.Num(), scaled.Denom())
	}
	return amount, nil
}

func (r *StaticRouter) quoteBackward(tokens []common.Address, fees []uint32, amountOut *big.Int) (*big.Int, error) {
	needed := new(big.Int).Set(amountOut)
	for i := len(fees) - 1; i >= 0; i-- {
		rate, ok := r.rates[poolKey{tokenIn: tokens[i], tokenOut: tokens[i+1], fee: fees[i]}]
		if !ok {
			return nil, errRouterNoPool
		}
		// Round the required input up so the forward conversion covers the
		// amount needed on the output side of this hop.
		scaled := new(big.Rat).Quo(new(big.Rat).SetInt(needed), rate)
		in := new(big.Int).Quo(scaled.Num(), scaled.Denom())
		forward := new(big.Rat).Mul(new(big.Rat).SetInt(in), rate)
		if new(big.Int).Quo(forward.Num(), forward.Denom()).Cmp(needed) < 0 {
			in = in.Add(in, big.NewInt(1))
		}
		needed = in
	}
	return needed, nil
}

func (r *StaticRouter) settle(tokenIn, tokenOut, payer, recipient common.Address, amountIn, amountOut *big.Int) error {
	if err := r.tokens.TransferFrom(tokenIn, r.address, payer, r.address, amountIn); err != nil {
		return err
	}
	return r.tokens.Transfer(tokenOut, r.address, recipient, amountOut)
}

func (r *StaticRouter) checkDeadline(deadline uint64) error {
	if r.now == nil || deadline == 0 {
		return nil
	}
	if r.now() > deadline {
		return errRouterExpired
	}
	return nil
}
