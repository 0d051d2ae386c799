package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ExactInputParams drives a swap that fixes the input amount and lets the
// output float, bounded below by AmountOutMinimum.
type ExactInputParams struct {
	// Path holds the hops in trade order.
	Path      Path
	Payer     common.Address
	Recipient common.Address
	// Deadline is a unix timestamp; the swap fails once now exceeds it.
	Deadline         int64
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
	// SqrtPriceLimitX96 is forwarded to the pool on single-hop swaps only.
	SqrtPriceLimitX96 *big.Int
	// HasPaid records that the caller pre-funded the router with attached
	// native value, to be wrapped on demand during settlement.
	HasPaid bool
}

// ExactOutputParams drives a swap that fixes the output amount and lets the
// input float, bounded above by AmountInMaximum.
type ExactOutputParams struct {
	// Path holds the hops in reverse trade order (last-traded hop first),
	// because exact-output traversal starts from the final hop.
	Path              Path
	Payer             common.Address
	Recipient         common.Address
	Deadline          int64
	AmountOut         *big.Int
	AmountInMaximum   *big.Int
	SqrtPriceLimitX96 *big.Int
	HasPaid           bool
}
