package registry

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"pairpool/internal/pool"
	"pairpool/internal/token"
)

func acct(b byte) common.Address { return common.Address{19: b} }

func newRegistry() *Registry {
	clock := uint64(1)
	return New(acct(0xAD), func() uint64 { return clock }, nil, nil)
}

func TestEnsurePoolCanonicalOrder(t *testing.T) {
	r := newRegistry()
	assetA := token.NewLedger(acct(0xBB), "TKB")
	assetB := token.NewLedger(acct(0xAA), "TKA")

	p, err := r.EnsurePool(assetA, assetB)
	if err != nil {
		t.Fatalf("ensure pool: %v", err)
	}
	// The smaller identifier always comes first, whatever the call order.
	if p.Token0() != assetB.Address() || p.Token1() != assetA.Address() {
		t.Fatalf("pair not canonical: %s/%s", p.Token0().Hex(), p.Token1().Hex())
	}

	again, err := r.EnsurePool(assetB, assetA)
	if err != nil {
		t.Fatalf("ensure pool: %v", err)
	}
	if again != p {
		t.Fatalf("both argument orders must fetch the same pool")
	}

	got, ok := r.GetPool(assetA.Address(), assetB.Address())
	if !ok || got != p {
		t.Fatalf("lookup should return the created pool")
	}
}

func TestEnsurePoolRejectsBadPairs(t *testing.T) {
	r := newRegistry()
	asset := token.NewLedger(acct(0xAA), "TKA")

	if _, err := r.EnsurePool(asset, asset); !errors.Is(err, ErrIdenticalAssets) {
		t.Fatalf("expected IDENTICAL_ADDRESSES, got %v", err)
	}
	zero := token.NewLedger(common.Address{}, "NIL")
	if _, err := r.EnsurePool(asset, zero); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ZERO_ADDRESS, got %v", err)
	}
}

func TestFeeAdministration(t *testing.T) {
	r := newRegistry()

	if err := r.SetFeeTo(acct(0x02), acct(0xFE)); !errors.Is(err, pool.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if err := r.SetFeeTo(acct(0xAD), acct(0xFE)); err != nil {
		t.Fatalf("set fee to: %v", err)
	}
	if got := r.FeeTo(); got != acct(0xFE) {
		t.Fatalf("fee to = %s, want %s", got.Hex(), acct(0xFE).Hex())
	}

	if err := r.SetFeeToSetter(acct(0xAD), acct(0x03)); err != nil {
		t.Fatalf("hand over setter: %v", err)
	}
	if err := r.SetFeeTo(acct(0xAD), common.Address{}); !errors.Is(err, pool.ErrForbidden) {
		t.Fatalf("old setter must lose access, got %v", err)
	}
	if err := r.SetFeeTo(acct(0x03), common.Address{}); err != nil {
		t.Fatalf("new setter: %v", err)
	}
}

func TestOnlyRegistryInitializes(t *testing.T) {
	r := newRegistry()
	assetA := token.NewLedger(acct(0xAA), "TKA")
	assetB := token.NewLedger(acct(0xBB), "TKB")

	p, err := r.EnsurePool(assetA, assetB)
	if err != nil {
		t.Fatalf("ensure pool: %v", err)
	}
	if err := p.Initialize(acct(0x02), assetA, assetB); !errors.Is(err, pool.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}
