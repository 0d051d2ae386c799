package pool

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fee tiers in hundredths of a bip (1 = 0.0001%).
const (
	FeeLow    uint32 = 500   // 0.05%
	FeeMedium uint32 = 3000  // 0.30%
	FeeHigh   uint32 = 10000 // 1.00%
)

// feeDenominator scales fee tiers to a fraction.
const feeDenominator = 1_000_000

// SwapCallback is the settlement entrypoint a pool invokes mid-swap, before
// its own Swap returns. sender is the invoking pool's address; deltas are
// signed from the pool's point of view (positive = owed to the pool,
// negative = paid out by the pool); data is the opaque context blob supplied
// by the swap initiator.
type SwapCallback interface {
	SwapCallback(sender common.Address, amount0Delta, amount1Delta *big.Int, data []byte) error
}

// Pool is the exchange capability for one token pair at one fee tier. A
// positive amountSpecified fixes the input amount; a negative one fixes the
// output amount. The pool synchronously calls cb before returning and
// aborts the swap unless its required balance increase was observed.
type Pool interface {
	Address() common.Address
	Token0() common.Address
	Token1() common.Address
	Fee() uint32

	Swap(
		ctx context.Context,
		recipient common.Address,
		zeroForOne bool,
		amountSpecified *big.Int,
		sqrtPriceLimitX96 *big.Int,
		cb SwapCallback,
		data []byte,
	) (amount0, amount1 *big.Int, err error)
}

// Quoter is implemented by pools that can price a swap without executing it.
type Quoter interface {
	QuoteOut(tokenIn common.Address, amountIn *big.Int) (*big.Int, error)
	QuoteIn(tokenOut common.Address, amountOut *big.Int) (*big.Int, error)
}

// Source resolves hops to pools. PoolAddress must be a pure function of the
// unordered token pair and fee tier so callback callers can be authenticated
// by re-derivation.
type Source interface {
	GetPool(tokenA, tokenB common.Address, fee uint32) (Pool, error)
	PoolAddress(tokenA, tokenB common.Address, fee uint32) common.Address
}
