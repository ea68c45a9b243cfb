package oracle

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func q112(n uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(n), 112)
}

func TestTWAPSteadyPrice(t *testing.T) {
	// Price 2 for token0 and 1/2 for token1, held for 10 seconds.
	first := NewObservation(100, uint256.NewInt(0), uint256.NewInt(0))
	acc1 := new(uint256.Int).Mul(q112(2), uint256.NewInt(10))
	acc2 := new(uint256.Int).Rsh(new(uint256.Int).Mul(q112(1), uint256.NewInt(10)), 1)
	second := NewObservation(110, acc1, acc2)

	price0, price1, err := TWAP(first, second)
	if err != nil {
		t.Fatalf("twap: %v", err)
	}
	if !price0.Eq(q112(2)) {
		t.Fatalf("price0 = %s, want %s", price0.Dec(), q112(2).Dec())
	}
	half := new(uint256.Int).Rsh(q112(1), 1)
	if !price1.Eq(half) {
		t.Fatalf("price1 = %s, want %s", price1.Dec(), half.Dec())
	}
}

func TestTWAPZeroElapsed(t *testing.T) {
	obs := NewObservation(42, uint256.NewInt(1), uint256.NewInt(1))
	if _, _, err := TWAP(obs, obs); !errors.Is(err, ErrZeroElapsed) {
		t.Fatalf("expected zero-elapsed error, got %v", err)
	}
}

func TestTWAPTimestampWrap(t *testing.T) {
	// 4 seconds before the uint32 clock wraps, then 6 seconds after it.
	first := NewObservation(^uint32(0)-3, uint256.NewInt(0), uint256.NewInt(0))
	acc := new(uint256.Int).Mul(q112(3), uint256.NewInt(10))
	second := NewObservation(6, acc, acc)

	price0, _, err := TWAP(first, second)
	if err != nil {
		t.Fatalf("twap: %v", err)
	}
	if !price0.Eq(q112(3)) {
		t.Fatalf("price0 across wrap = %s, want %s", price0.Dec(), q112(3).Dec())
	}
}

func TestTWAPAccumulatorWrap(t *testing.T) {
	// The accumulator overflows between readings. Wrapping subtraction still
	// yields the true delta: later - earlier mod 2^256.
	max := new(uint256.Int).Not(uint256.NewInt(0))
	earlier := NewObservation(0, new(uint256.Int).Sub(max, q112(4)), uint256.NewInt(0))
	// Delta of 10*2^112 lands the counter at 6*2^112 - 1 after the wrap.
	laterAcc := new(uint256.Int).Sub(q112(6), uint256.NewInt(1))
	later := NewObservation(10, laterAcc, uint256.NewInt(0))

	price0, _, err := TWAP(earlier, later)
	if err != nil {
		t.Fatalf("twap: %v", err)
	}
	if !price0.Eq(q112(1)) {
		t.Fatalf("price0 across accumulator wrap = %s, want %s", price0.Dec(), q112(1).Dec())
	}
}

func TestFormatQ112(t *testing.T) {
	cases := []struct {
		name   string
		price  *uint256.Int
		digits int
		want   string
	}{
		{"whole", q112(7), 0, "7"},
		{"whole with fraction digits", q112(7), 2, "7.00"},
		{"one half", new(uint256.Int).Rsh(q112(1), 1), 4, "0.5000"},
		{"one quarter", new(uint256.Int).Rsh(q112(1), 2), 2, "0.25"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatQ112(tc.price, tc.digits); got != tc.want {
				t.Fatalf("format = %q, want %q", got, tc.want)
			}
		})
	}
}
