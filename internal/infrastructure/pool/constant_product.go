package pool

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-router/internal/infrastructure/token"
)

// ConstantProductPool is the reference pool implementation: x*y=k pricing
// with the fee taken on input. It settles flash-style: the output side and
// the demanded input are both resolved before any reserve update, and the
// swap aborts unless the pool's input-token balance rose to cover the owed
// amount. The balance is checked against recorded reserves, so payments
// delivered before Swap was entered (pool-to-pool routing) count.
type ConstantProductPool struct {
	address common.Address
	ledger0 token.Ledger
	ledger1 token.Ledger
	fee     uint32

	mu       sync.Mutex
	reserve0 *big.Int
	reserve1 *big.Int
}

func newConstantProductPool(address common.Address, ledger0, ledger1 token.Ledger, fee uint32) *ConstantProductPool {
	return &ConstantProductPool{
		address:  address,
		ledger0:  ledger0,
		ledger1:  ledger1,
		fee:      fee,
		reserve0: big.NewInt(0),
		reserve1: big.NewInt(0),
	}
}

func (p *ConstantProductPool) Address() common.Address { return p.address }
func (p *ConstantProductPool) Token0() common.Address  { return p.ledger0.Address() }
func (p *ConstantProductPool) Token1() common.Address  { return p.ledger1.Address() }
func (p *ConstantProductPool) Fee() uint32             { return p.fee }

// Sync records the pool's actual ledger balances as reserves. Called after
// seeding liquidity by direct transfer.
func (p *ConstantProductPool) Sync() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserve0 = p.ledger0.BalanceOf(p.address)
	p.reserve1 = p.ledger1.BalanceOf(p.address)
}

// Reserves returns the recorded reserves.
func (p *ConstantProductPool) Reserves() (*big.Int, *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
}

// Swap executes one exchange leg. amountSpecified > 0 fixes the input,
// < 0 fixes the output. sqrtPriceLimitX96 is accepted for interface
// compatibility; constant-product pricing has no tick boundary to stop at.
func (p *ConstantProductPool) Swap(
	ctx context.Context,
	recipient common.Address,
	zeroForOne bool,
	amountSpecified *big.Int,
	sqrtPriceLimitX96 *big.Int,
	cb SwapCallback,
	data []byte,
) (*big.Int, *big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if amountSpecified == nil || amountSpecified.Sign() == 0 {
		return nil, nil, ErrZeroAmount
	}
	if cb == nil {
		return nil, nil, fmt.Errorf("pool %s: nil settlement callback", p.address.Hex())
	}

	// A pool cannot be re-entered while its own swap is settling; a path
	// that routes through the same pool twice within one exact-output
	// recursion fails here instead of deadlocking.
	if !p.mu.TryLock() {
		return nil, nil, fmt.Errorf("pool %s: reentrant swap", p.address.Hex())
	}
	defer p.mu.Unlock()

	ledgerIn, ledgerOut := p.ledger0, p.ledger1
	reserveIn, reserveOut := p.reserve0, p.reserve1
	if !zeroForOne {
		ledgerIn, ledgerOut = p.ledger1, p.ledger0
		reserveIn, reserveOut = p.reserve1, p.reserve0
	}

	var amountIn, amountOut *big.Int
	var err error
	if amountSpecified.Sign() > 0 {
		amountIn = new(big.Int).Set(amountSpecified)
		amountOut, err = AmountOut(amountIn, reserveIn, reserveOut, p.fee)
	} else {
		amountOut = new(big.Int).Neg(amountSpecified)
		amountIn, err = AmountIn(amountOut, reserveIn, reserveOut, p.fee)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("pool %s: %w", p.address.Hex(), err)
	}

	amount0 := new(big.Int).Set(amountIn)
	amount1 := new(big.Int).Neg(amountOut)
	if !zeroForOne {
		amount0, amount1 = amount1, amount0
	}

	// Demand payment before releasing any output.
	if err := cb.SwapCallback(p.address, amount0, amount1, data); err != nil {
		return nil, nil, err
	}

	required := new(big.Int).Add(reserveIn, amountIn)
	if ledgerIn.BalanceOf(p.address).Cmp(required) < 0 {
		return nil, nil, fmt.Errorf("pool %s: insufficient input amount", p.address.Hex())
	}

	if err := ledgerOut.Transfer(p.address, recipient, amountOut); err != nil {
		return nil, nil, err
	}

	p.reserve0 = p.ledger0.BalanceOf(p.address)
	p.reserve1 = p.ledger1.BalanceOf(p.address)

	return amount0, amount1, nil
}

// QuoteOut prices an exact-input swap without executing it.
func (p *ConstantProductPool) QuoteOut(tokenIn common.Address, amountIn *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tokenIn == p.ledger0.Address() {
		return AmountOut(amountIn, p.reserve0, p.reserve1, p.fee)
	}
	return AmountOut(amountIn, p.reserve1, p.reserve0, p.fee)
}

// QuoteIn prices an exact-output swap without executing it.
func (p *ConstantProductPool) QuoteIn(tokenOut common.Address, amountOut *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tokenOut == p.ledger0.Address() {
		return AmountIn(amountOut, p.reserve1, p.reserve0, p.fee)
	}
	return AmountIn(amountOut, p.reserve0, p.reserve1, p.fee)
}
