package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-router/internal/domain/entities"
	"github.com/bimakw/swap-router/internal/infrastructure/pool"
	"github.com/bimakw/swap-router/internal/infrastructure/token"
)

var (
	// ErrDeadlineExpired rejects a swap submitted past its deadline.
	ErrDeadlineExpired = errors.New("Transaction too old")
	// ErrInsufficientOutput rejects an exact-input swap whose realized
	// output fell below the caller's minimum.
	ErrInsufficientOutput = errors.New("Too little received")
	// ErrExcessiveInput rejects an exact-output swap whose realized input
	// exceeded the caller's maximum.
	ErrExcessiveInput = errors.New("Too much requested")
	// ErrUnauthorizedCallback rejects a settlement callback whose caller is
	// not the pool derived from the callback context.
	ErrUnauthorizedCallback = errors.New("unauthorized settlement callback")
	// ErrSwapInProgress rejects a top-level call entered while another
	// chain is still open.
	ErrSwapInProgress = errors.New("swap already in progress")
	// ErrInvalidAmount rejects non-positive swap amounts.
	ErrInvalidAmount = errors.New("swap amount must be positive")
)

// Option configures a SwapRouter.
type Option func(*SwapRouter)

// WithWrappedRefunds leaves unspent attached value in wrapped form instead
// of returning it as native asset.
func WithWrappedRefunds() Option {
	return func(r *SwapRouter) { r.refundWrapped = true }
}

// SwapRouter orchestrates multi-hop swaps across independent pools. It
// never holds custody of intermediate assets: forward chains deliver each
// hop's output straight to the next pool, and backward chains settle by
// recursing from the final hop toward the first. All state between hops of
// one chain lives in the callback context plus a single pending-payment
// slot that is empty outside an in-flight call.
type SwapRouter struct {
	address       common.Address
	pools         pool.Source
	tokens        *token.Registry
	wrapped       *token.WrappedNative
	refundWrapped bool

	mu sync.Mutex
	// inFlight guards the chain: only one top-level call may be open.
	inFlight bool
	// amountInCached carries the realized input of an exact-output chain
	// from the terminal settlement step back to the entry point. Cleared
	// unconditionally when the chain closes.
	amountInCached *big.Int
}

func NewSwapRouter(address common.Address, pools pool.Source, tokens *token.Registry, wrapped *token.WrappedNative, opts ...Option) *SwapRouter {
	r := &SwapRouter{
		address: address,
		pools:   pools,
		tokens:  tokens,
		wrapped: wrapped,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Address returns the router's own account, the target for allowance
// approvals and attached native value.
func (r *SwapRouter) Address() common.Address {
	return r.address
}

// ExactInput converts an exact input amount along the path into the
// best-effort output, failing if it comes in under params.AmountOutMinimum.
func (r *SwapRouter) ExactInput(ctx context.Context, params entities.ExactInputParams) (*big.Int, error) {
	if err := checkDeadline(params.Deadline); err != nil {
		return nil, err
	}
	if err := params.Path.Validate(); err != nil {
		return nil, err
	}
	if params.AmountIn == nil || params.AmountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := r.begin(); err != nil {
		return nil, err
	}
	defer r.end()

	restore := r.tokens.Checkpoint()
	amountOut, err := r.exactInput(ctx, params)
	if err != nil {
		restore()
		r.resync(params.Path)
		r.refundAttached(params.HasPaid, params.Payer)
		return nil, err
	}
	return amountOut, nil
}

func (r *SwapRouter) exactInput(ctx context.Context, params entities.ExactInputParams) (*big.Int, error) {
	payer := params.Payer
	if params.HasPaid {
		payer = r.address
	}

	path := params.Path
	amountIn := new(big.Int).Set(params.AmountIn)
	var limit *big.Int
	if !path.HasMultipleHops() {
		limit = params.SqrtPriceLimitX96
	}

	for {
		hasMultipleHops := path.HasMultipleHops()

		// Intermediate output flows pool-to-pool; only the final hop
		// pays the caller's recipient.
		recipient := params.Recipient
		if hasMultipleHops {
			next := path.SkipHop().FirstHop()
			recipient = r.pools.PoolAddress(next.TokenIn, next.TokenOut, next.Fee)
		}

		amountOut, err := r.exactInputInternal(ctx, amountIn, recipient, limit, callbackData{
			Path:  path.FirstHopPath(),
			Payer: payer,
		})
		if err != nil {
			return nil, err
		}

		if !hasMultipleHops {
			if params.AmountOutMinimum != nil && amountOut.Cmp(params.AmountOutMinimum) < 0 {
				return nil, ErrInsufficientOutput
			}
			if params.HasPaid {
				if err := r.refundNative(params.Payer); err != nil {
					return nil, err
				}
			}
			return amountOut, nil
		}

		// Downstream pools were already funded by this hop's delivery.
		payer = common.Address{}
		path = path.SkipHop()
		amountIn = amountOut
		limit = nil
	}
}

func (r *SwapRouter) exactInputInternal(ctx context.Context, amountIn *big.Int, recipient common.Address, limit *big.Int, data callbackData) (*big.Int, error) {
	hop := data.Path.FirstHop()
	p, err := r.pools.GetPool(hop.TokenIn, hop.TokenOut, hop.Fee)
	if err != nil {
		return nil, err
	}

	zeroForOne := hop.TokenIn == p.Token0()
	amount0, amount1, err := p.Swap(ctx, recipient, zeroForOne, amountIn, limit, r, data.encode())
	if err != nil {
		return nil, err
	}

	received := amount1
	if !zeroForOne {
		received = amount0
	}
	return new(big.Int).Neg(received), nil
}

// ExactOutput obtains an exact output amount along the path while spending
// as little input as possible, failing if the realized input exceeds
// params.AmountInMaximum. The path is traversed backward from the final
// hop: each pool's owed input becomes the requested output of the hop
// before it, chained through the settlement callback.
func (r *SwapRouter) ExactOutput(ctx context.Context, params entities.ExactOutputParams) (*big.Int, error) {
	if err := checkDeadline(params.Deadline); err != nil {
		return nil, err
	}
	if err := params.Path.Validate(); err != nil {
		return nil, err
	}
	if params.AmountOut == nil || params.AmountOut.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := r.begin(); err != nil {
		return nil, err
	}
	defer r.end()

	restore := r.tokens.Checkpoint()
	amountIn, err := r.exactOutput(ctx, params)
	if err != nil {
		restore()
		r.resync(params.Path)
		r.refundAttached(params.HasPaid, params.Payer)
		return nil, err
	}
	return amountIn, nil
}

func (r *SwapRouter) exactOutput(ctx context.Context, params entities.ExactOutputParams) (*big.Int, error) {
	payer := params.Payer
	if params.HasPaid {
		payer = r.address
	}

	var limit *big.Int
	if !params.Path.HasMultipleHops() {
		limit = params.SqrtPriceLimitX96
	}

	if _, err := r.exactOutputInternal(ctx, params.AmountOut, params.Recipient, limit, callbackData{
		Path:  params.Path,
		Payer: payer,
	}); err != nil {
		return nil, err
	}

	amountIn := r.takePendingPayment()
	if amountIn == nil {
		return nil, fmt.Errorf("%w: settlement chain did not resolve a payment", ErrUnauthorizedCallback)
	}
	if params.AmountInMaximum != nil && amountIn.Cmp(params.AmountInMaximum) > 0 {
		return nil, ErrExcessiveInput
	}

	// Unused attached value is returned; wrapping only ever consumed the
	// realized input.
	if params.HasPaid {
		if err := r.refundNative(params.Payer); err != nil {
			return nil, err
		}
	}
	return amountIn, nil
}

func (r *SwapRouter) exactOutputInternal(ctx context.Context, amountOut *big.Int, recipient common.Address, limit *big.Int, data callbackData) (*big.Int, error) {
	// Exact-output paths are encoded in reverse, so the head names the
	// output side of the hop.
	hop := data.Path.FirstHop()
	tokenOut, tokenIn := hop.TokenIn, hop.TokenOut

	p, err := r.pools.GetPool(tokenIn, tokenOut, hop.Fee)
	if err != nil {
		return nil, err
	}

	zeroForOne := tokenIn == p.Token0()
	amount0, amount1, err := p.Swap(ctx, recipient, zeroForOne, new(big.Int).Neg(amountOut), limit, r, data.encode())
	if err != nil {
		return nil, err
	}

	amountIn, received := amount0, new(big.Int).Neg(amount1)
	if !zeroForOne {
		amountIn, received = amount1, new(big.Int).Neg(amount0)
	}
	if received.Cmp(amountOut) != 0 {
		return nil, fmt.Errorf("pool %s filled %s of requested %s", p.Address().Hex(), received, amountOut)
	}
	return amountIn, nil
}

// pay settles an owed amount toward a pool: wrap attached native value on
// demand, spend the router's own balance, or pull from the payer's
// approved balance.
func (r *SwapRouter) pay(tokenAddr, payer, recipient common.Address, value *big.Int) error {
	if tokenAddr == r.wrapped.Address() && payer == r.address &&
		r.wrapped.NativeBalanceOf(r.address).Cmp(value) >= 0 {
		if err := r.wrapped.Deposit(r.address, value); err != nil {
			return err
		}
		return r.wrapped.Transfer(r.address, recipient, value)
	}

	ledger, err := r.tokens.Get(tokenAddr)
	if err != nil {
		return err
	}
	if payer == r.address {
		return ledger.Transfer(r.address, recipient, value)
	}
	return ledger.TransferFrom(r.address, payer, recipient, value)
}

// refundNative returns the router's residual native balance to the payer,
// either as native asset or, when configured, wrapped.
func (r *SwapRouter) refundNative(to common.Address) error {
	remaining := r.wrapped.NativeBalanceOf(r.address)
	if remaining.Sign() == 0 {
		return nil
	}
	if r.refundWrapped {
		if err := r.wrapped.Deposit(r.address, remaining); err != nil {
			return err
		}
		return r.wrapped.Transfer(r.address, to, remaining)
	}
	return r.wrapped.TransferNative(r.address, to, remaining)
}

// resync realigns recorded pool reserves with ledger balances after a
// checkpoint restore rolled an interrupted chain back.
func (r *SwapRouter) resync(path entities.Path) {
	hops, err := path.Hops()
	if err != nil {
		return
	}
	for _, hop := range hops {
		p, err := r.pools.GetPool(hop.TokenIn, hop.TokenOut, hop.Fee)
		if err != nil {
			continue
		}
		if s, ok := p.(interface{ Sync() }); ok {
			s.Sync()
		}
	}
}

// refundAttached is the best-effort error-path refund of attached value.
func (r *SwapRouter) refundAttached(hasPaid bool, payer common.Address) {
	if hasPaid {
		_ = r.refundNative(payer)
	}
}

func (r *SwapRouter) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight {
		return ErrSwapInProgress
	}
	r.inFlight = true
	return nil
}

// end closes the chain and clears the pending-payment slot unconditionally.
func (r *SwapRouter) end() {
	r.mu.Lock()
	r.inFlight = false
	r.amountInCached = nil
	r.mu.Unlock()
}

func (r *SwapRouter) setPendingPayment(amount *big.Int) {
	r.mu.Lock()
	r.amountInCached = new(big.Int).Set(amount)
	r.mu.Unlock()
}

func (r *SwapRouter) takePendingPayment() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	amount := r.amountInCached
	r.amountInCached = nil
	return amount
}

func checkDeadline(deadline int64) error {
	if time.Now().Unix() > deadline {
		return ErrDeadlineExpired
	}
	return nil
}
