package entities

import "math/big"

// Quote is the simulated outcome of routing an amount along a path without
// executing it.
type Quote struct {
	Path        Path     `json:"path"`
	AmountIn    *big.Int `json:"amountIn"`
	AmountOut   *big.Int `json:"amountOut"`
	GasEstimate uint64   `json:"gasEstimate"`
	UpdatedAt   int64    `json:"updatedAt"`
}
