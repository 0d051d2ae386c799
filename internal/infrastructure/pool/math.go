package pool

import (
	"errors"
	"math/big"
)

var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrZeroAmount            = errors.New("zero swap amount")
)

// AmountOut prices an exact-input swap against constant-product reserves:
// out = (in * (1e6 - fee) * reserveOut) / (reserveIn * 1e6 + in * (1e6 - fee))
func AmountOut(amountIn, reserveIn, reserveOut *big.Int, fee uint32) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	feeMultiplier := big.NewInt(feeDenominator - int64(fee))
	amountInWithFee := new(big.Int).Mul(amountIn, feeMultiplier)

	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(feeDenominator))
	denominator.Add(denominator, amountInWithFee)

	return numerator.Div(numerator, denominator), nil
}

// AmountIn prices an exact-output swap: the smallest input whose AmountOut
// covers the requested output.
// in = (reserveIn * out * 1e6) / ((reserveOut - out) * (1e6 - fee)) + 1
func AmountIn(amountOut, reserveIn, reserveOut *big.Int, fee uint32) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Cmp(amountOut) <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	feeMultiplier := big.NewInt(feeDenominator - int64(fee))

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, big.NewInt(feeDenominator))
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeMultiplier)

	amountIn := numerator.Div(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}
