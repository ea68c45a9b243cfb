package pool

import "github.com/holiman/uint256"

// revision captures everything a failed operation must restore: snapshot
// ids for the journaled ledgers plus a value copy of the pool's scalars.
type revision struct {
	token0Snap int
	token1Snap int
	sharesSnap int

	reserve0           uint256.Int
	reserve1           uint256.Int
	blockTimestampLast uint32
	price0Cumulative   uint256.Int
	price1Cumulative   uint256.Int
	kLast              uint256.Int
}

// run serializes a mutating operation behind the reentrancy flag and makes
// it all-or-nothing: any error reverts every side effect taken so far,
// optimistic transfers included.
func (p *Pool) run(fn func() error) error {
	if p.locked {
		return ErrLocked
	}
	p.locked = true
	defer func() { p.locked = false }()

	rev := p.snapshot()
	if err := fn(); err != nil {
		p.revertTo(rev)
		return err
	}
	return nil
}

func (p *Pool) snapshot() revision {
	rev := revision{
		sharesSnap:         p.shares.Snapshot(),
		reserve0:           p.reserve0,
		reserve1:           p.reserve1,
		blockTimestampLast: p.blockTimestampLast,
		price0Cumulative:   p.price0Cumulative,
		price1Cumulative:   p.price1Cumulative,
		kLast:              p.kLast,
	}
	if p.token0 != nil {
		rev.token0Snap = p.token0.Snapshot()
	}
	if p.token1 != nil {
		rev.token1Snap = p.token1.Snapshot()
	}
	return rev
}

func (p *Pool) revertTo(rev revision) {
	if p.token0 != nil {
		p.token0.RevertToSnapshot(rev.token0Snap)
	}
	if p.token1 != nil {
		p.token1.RevertToSnapshot(rev.token1Snap)
	}
	p.shares.RevertToSnapshot(rev.sharesSnap)
	p.reserve0 = rev.reserve0
	p.reserve1 = rev.reserve1
	p.blockTimestampLast = rev.blockTimestampLast
	p.price0Cumulative = rev.price0Cumulative
	p.price1Cumulative = rev.price1Cumulative
	p.kLast = rev.kLast
}
