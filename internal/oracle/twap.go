// Package oracle derives time-weighted average prices from a pool's
// cumulative price accumulators.
package oracle

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var ErrZeroElapsed = errors.New("observations are not separated in time")

// Observation is a reading of both accumulators at a known clock value.
type Observation struct {
	Timestamp        uint32
	Price0Cumulative uint256.Int
	Price1Cumulative uint256.Int
}

// NewObservation copies the accumulator values into an Observation.
func NewObservation(ts uint32, price0, price1 *uint256.Int) Observation {
	obs := Observation{Timestamp: ts}
	obs.Price0Cumulative.Set(price0)
	obs.Price1Cumulative.Set(price1)
	return obs
}

// TWAP returns the average Q112.112 prices between two observations. The
// accumulator and timestamp differences both use wrapping subtraction, so
// the result is correct even across a counter wrap, as long as the window
// is shorter than one full wrap period.
func TWAP(earlier, later Observation) (price0, price1 *uint256.Int, err error) {
	elapsed := later.Timestamp - earlier.Timestamp // wraps mod 2^32
	if elapsed == 0 {
		return nil, nil, ErrZeroElapsed
	}
	div := uint256.NewInt(uint64(elapsed))
	price0 = new(uint256.Int).Sub(&later.Price0Cumulative, &earlier.Price0Cumulative)
	price0.Div(price0, div)
	price1 = new(uint256.Int).Sub(&later.Price1Cumulative, &earlier.Price1Cumulative)
	price1.Div(price1, div)
	return price0, price1, nil
}

// FormatQ112 renders a Q112.112 price as a decimal string with the given
// number of fractional digits.
func FormatQ112(price *uint256.Int, digits int) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	scaled := new(big.Int).Mul(price.ToBig(), scale)
	scaled.Rsh(scaled, 112)

	quo, rem := new(big.Int).QuoRem(scaled, scale, new(big.Int))
	if digits == 0 {
		return quo.String()
	}
	frac := rem.String()
	for len(frac) < digits {
		frac = "0" + frac
	}
	return quo.String() + "." + frac
}
