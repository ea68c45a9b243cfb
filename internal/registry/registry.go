// Package registry creates and indexes pools, one per unordered asset pair,
// and carries the protocol fee recipient setting pools consult.
package registry

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"pairpool/internal/pool"
	"pairpool/internal/token"
)

var (
	ErrIdenticalAssets = errors.New("IDENTICAL_ADDRESSES")
	ErrZeroAddress     = errors.New("ZERO_ADDRESS")
)

// Registry deterministically creates pools and exposes the fee-recipient
// configuration. It implements pool.FeeConfig.
type Registry struct {
	log  *zap.Logger
	now  func() uint64
	emit pool.Emitter

	addr        common.Address
	feeTo       common.Address
	feeToSetter common.Address

	pools map[[2]common.Address]*pool.Pool
	order []*pool.Pool
}

// New builds a registry. feeToSetter is the only identity allowed to change
// the fee configuration.
func New(feeToSetter common.Address, now func() uint64, logger *zap.Logger, emit pool.Emitter) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		log:         logger,
		now:         now,
		emit:        emit,
		addr:        common.BytesToAddress(crypto.Keccak256([]byte("pairpool/registry"))[12:]),
		feeToSetter: feeToSetter,
		pools:       make(map[[2]common.Address]*pool.Pool),
	}
}

// Address returns the registry identity pools accept Initialize from.
func (r *Registry) Address() common.Address { return r.addr }

// FeeTo returns the protocol fee recipient; zero means fees are off.
func (r *Registry) FeeTo() common.Address { return r.feeTo }

// SetFeeTo changes the fee recipient. Restricted to the fee setter.
func (r *Registry) SetFeeTo(caller, feeTo common.Address) error {
	if caller != r.feeToSetter {
		return pool.ErrForbidden
	}
	r.feeTo = feeTo
	return nil
}

// SetFeeToSetter hands fee administration to another identity.
func (r *Registry) SetFeeToSetter(caller, feeToSetter common.Address) error {
	if caller != r.feeToSetter {
		return pool.ErrForbidden
	}
	r.feeToSetter = feeToSetter
	return nil
}

// EnsurePool returns the pool for the unordered pair, creating and
// initializing it on first request. The pair is canonicalized so both
// argument orders map to the same pool.
func (r *Registry) EnsurePool(assetA, assetB token.Asset) (*pool.Pool, error) {
	if assetA.Address() == assetB.Address() {
		return nil, ErrIdenticalAssets
	}
	if assetA.Address() == (common.Address{}) || assetB.Address() == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	token0, token1 := assetA, assetB
	if bytes.Compare(token1.Address().Bytes(), token0.Address().Bytes()) < 0 {
		token0, token1 = token1, token0
	}

	key := pairKey(token0.Address(), token1.Address())
	if existing, ok := r.pools[key]; ok {
		return existing, nil
	}

	p := pool.New(r.addr, poolAddress(token0.Address(), token1.Address()), r, r.now, r.log, r.emit)
	if err := p.Initialize(r.addr, token0, token1); err != nil {
		return nil, err
	}
	r.pools[key] = p
	r.order = append(r.order, p)
	r.log.Info("pool created",
		zap.String("pool", p.Address().Hex()),
		zap.String("token0", token0.Address().Hex()),
		zap.String("token1", token1.Address().Hex()),
	)
	return p, nil
}

// GetPool fetches the pool for the unordered pair, if one exists.
func (r *Registry) GetPool(assetA, assetB common.Address) (*pool.Pool, bool) {
	token0, token1 := assetA, assetB
	if bytes.Compare(token1.Bytes(), token0.Bytes()) < 0 {
		token0, token1 = token1, token0
	}
	p, ok := r.pools[pairKey(token0, token1)]
	return p, ok
}

// AllPools returns every pool in creation order.
func (r *Registry) AllPools() []*pool.Pool {
	out := make([]*pool.Pool, len(r.order))
	copy(out, r.order)
	return out
}

func pairKey(token0, token1 common.Address) [2]common.Address {
	return [2]common.Address{token0, token1}
}

// poolAddress derives a deterministic custody address from the canonical
// pair, so the same pair always maps to one pool identity.
func poolAddress(token0, token1 common.Address) common.Address {
	h := crypto.Keccak256(token0.Bytes(), token1.Bytes())
	return common.BytesToAddress(h[12:])
}
