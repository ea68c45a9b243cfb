// Package shares holds the pool's liquidity share ledger: the minimal
// mint/burn/balance/transfer primitive the pool composes over by value.
package shares

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientShares = errors.New("share amount exceeds balance")
)

// Ledger tracks outstanding liquidity shares per holder. Writes are
// journaled so the owning pool can revert a failed operation atomically.
type Ledger struct {
	supply   uint256.Int
	balances map[common.Address]*uint256.Int
	journal  []journalEntry
}

type journalEntry struct {
	owner      common.Address
	prev       uint256.Int
	prevSupply uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[common.Address]*uint256.Int)}
}

// TotalSupply returns a copy of the outstanding share count.
func (l *Ledger) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(&l.supply)
}

// BalanceOf returns a copy of the holder's share count.
func (l *Ledger) BalanceOf(owner common.Address) *uint256.Int {
	if b, ok := l.balances[owner]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// Mint issues new shares to the owner.
func (l *Ledger) Mint(owner common.Address, amount *uint256.Int) {
	l.record(owner)
	b := l.balance(owner)
	b.Add(b, amount)
	l.supply.Add(&l.supply, amount)
}

// Burn destroys shares held by the owner.
func (l *Ledger) Burn(owner common.Address, amount *uint256.Int) error {
	b := l.balance(owner)
	if b.Lt(amount) {
		return ErrInsufficientShares
	}
	l.record(owner)
	b.Sub(b, amount)
	l.supply.Sub(&l.supply, amount)
	return nil
}

// Transfer moves shares between holders.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	src := l.balance(from)
	if src.Lt(amount) {
		return ErrInsufficientShares
	}
	l.record(from)
	l.record(to)
	src.Sub(src, amount)
	dst := l.balance(to)
	dst.Add(dst, amount)
	return nil
}

// Snapshot returns a revision identifier for the current ledger state.
func (l *Ledger) Snapshot() int { return len(l.journal) }

// RevertToSnapshot unwinds all writes made after the snapshot was taken.
func (l *Ledger) RevertToSnapshot(id int) {
	for i := len(l.journal) - 1; i >= id; i-- {
		e := l.journal[i]
		l.balance(e.owner).Set(&e.prev)
		l.supply.Set(&e.prevSupply)
	}
	l.journal = l.journal[:id]
}

func (l *Ledger) balance(owner common.Address) *uint256.Int {
	b, ok := l.balances[owner]
	if !ok {
		b = new(uint256.Int)
		l.balances[owner] = b
	}
	return b
}

func (l *Ledger) record(owner common.Address) {
	l.journal = append(l.journal, journalEntry{
		owner:      owner,
		prev:       *l.balance(owner),
		prevSupply: l.supply,
	})
}
