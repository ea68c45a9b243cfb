package pool

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"pairpool/internal/token"
)

// reentrantAsset runs an attack once from inside its next Transfer, the way
// a hostile asset contract would re-enter mid-swap.
type reentrantAsset struct {
	*token.Ledger
	armed  bool
	attack func() error
	result error
}

func (ra *reentrantAsset) Transfer(from, to common.Address, amount *uint256.Int) error {
	if ra.armed {
		ra.armed = false
		ra.result = ra.attack()
	}
	return ra.Ledger.Transfer(from, to, amount)
}

func newHostileFixture(t *testing.T) (*Pool, *reentrantAsset, common.Address, uint64) {
	t.Helper()
	registryAddr := addr(0xEE)
	user := addr(0x01)
	hostile := &reentrantAsset{Ledger: token.NewLedger(addr(0xAA), "TKA")}
	token1 := token.NewLedger(addr(0xBB), "TKB")

	clock := uint64(1000)
	p := New(registryAddr, addr(0xCC), nil, func() uint64 { return clock }, nil, nil)
	if err := p.Initialize(registryAddr, hostile, token1); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	hostile.Mint(user, u(20000))
	token1.Mint(user, u(20000))
	if err := hostile.Ledger.Transfer(user, p.Address(), u(10000)); err != nil {
		t.Fatalf("deposit token0: %v", err)
	}
	if err := token1.Transfer(user, p.Address(), u(10000)); err != nil {
		t.Fatalf("deposit token1: %v", err)
	}
	if _, err := p.Mint(user, user); err != nil {
		t.Fatalf("mint: %v", err)
	}
	// Pre-fund the input for one swap paying token1, taking token0 out; the
	// optimistic token0 transfer hands control to the hostile asset.
	if err := token1.Transfer(user, p.Address(), u(1000)); err != nil {
		t.Fatalf("deposit swap input: %v", err)
	}
	return p, hostile, user, clock
}

func TestReentrantCallsLocked(t *testing.T) {
	attacks := map[string]func(p *Pool, user common.Address, clock uint64) error{
		"swap": func(p *Pool, user common.Address, clock uint64) error {
			return p.Swap(user, u(0), u(1), user, clock)
		},
		"mint": func(p *Pool, user common.Address, _ uint64) error {
			_, err := p.Mint(user, user)
			return err
		},
		"burn": func(p *Pool, user common.Address, _ uint64) error {
			_, _, err := p.Burn(user, user)
			return err
		},
		"sync": func(p *Pool, _ common.Address, _ uint64) error {
			return p.Sync()
		},
	}

	for name, attack := range attacks {
		t.Run(name, func(t *testing.T) {
			p, hostile, user, clock := newHostileFixture(t)
			hostile.armed = true
			hostile.attack = func() error { return attack(p, user, clock) }

			out, err := GetAmountOut(u(1000), u(10000), u(10000))
			if err != nil {
				t.Fatalf("quote: %v", err)
			}
			if err := p.Swap(user, out, u(0), user, clock); err != nil {
				t.Fatalf("outer swap: %v", err)
			}
			if !errors.Is(hostile.result, ErrLocked) {
				t.Fatalf("reentrant %s should fail LOCKED, got %v", name, hostile.result)
			}
		})
	}
}

func TestGuardClearedAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t, 10000, 10000)

	if err := f.pool.Swap(f.user, u(0), u(0), f.user, f.clock); !errors.Is(err, ErrInsufficientOutputAmount) {
		t.Fatalf("expected INSUFFICIENT_OUTPUT_AMOUNT, got %v", err)
	}
	// The lock must be released on the failure path too.
	if err := f.pool.Sync(); err != nil {
		t.Fatalf("pool should accept calls after a failed one: %v", err)
	}
}
