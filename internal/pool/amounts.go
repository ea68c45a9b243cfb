package pool

import "github.com/holiman/uint256"

// GetAmountOut quotes the maximum output for a given input against the
// given reserves, after the 0.3% fee.
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	amountInWithFee := new(uint256.Int).Mul(amountIn, feeFactor)
	numerator := new(uint256.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(uint256.Int).Mul(reserveIn, thousand)
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}

// GetAmountIn quotes the minimum input required to take the given output
// from the given reserves, after the 0.3% fee. Rounds up.
func GetAmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountOut.IsZero() {
		return nil, ErrInsufficientOutputAmount
	}
	if reserveIn.IsZero() || !amountOut.Lt(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	numerator := new(uint256.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, thousand)
	denominator := new(uint256.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeFactor)
	amountIn := numerator.Div(numerator, denominator)
	return amountIn.AddUint64(amountIn, 1), nil
}
