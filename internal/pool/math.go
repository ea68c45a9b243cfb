package pool

import "github.com/holiman/uint256"

// maxUint112 bounds each reserve; committing a larger balance is OVERFLOW.
var maxUint112 = func() *uint256.Int {
	one := uint256.NewInt(1)
	max := new(uint256.Int).Lsh(one, 112)
	return max.Sub(max, one)
}()

var (
	three     = uint256.NewInt(3)
	five      = uint256.NewInt(5)
	thousand  = uint256.NewInt(1000)
	feeFactor = uint256.NewInt(997)
	kScale    = uint256.NewInt(1000 * 1000)
	minSupply = uint256.NewInt(1000)
)

// MinimumLiquidity is the share amount minted to the zero address on the
// first deposit and locked there forever.
func MinimumLiquidity() *uint256.Int {
	return new(uint256.Int).Set(minSupply)
}

// sqrtFloor returns ⌊√x⌋.
func sqrtFloor(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(x)
}

// q112Price returns the UQ112.112 fraction numerator/denominator.
// Division by a zero denominator yields zero; callers gate on non-zero
// reserves before integrating.
func q112Price(numerator, denominator *uint256.Int) *uint256.Int {
	p := new(uint256.Int).Lsh(numerator, 112)
	return p.Div(p, denominator)
}
