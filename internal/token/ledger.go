package token

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrInsufficientBalance = errors.New("transfer amount exceeds balance")

// Ledger is an in-memory journaled asset ledger implementing Asset.
// Every balance write is journaled so a snapshot taken before an operation
// can be reverted if the operation fails partway through.
type Ledger struct {
	addr     common.Address
	symbol   string
	supply   uint256.Int
	balances map[common.Address]*uint256.Int
	journal  []journalEntry
}

type journalEntry struct {
	owner      common.Address
	prev       uint256.Int
	prevSupply uint256.Int
}

func NewLedger(addr common.Address, symbol string) *Ledger {
	return &Ledger{
		addr:     addr,
		symbol:   symbol,
		balances: make(map[common.Address]*uint256.Int),
	}
}

func (l *Ledger) Address() common.Address { return l.addr }

func (l *Ledger) Symbol() string { return l.symbol }

// TotalSupply returns a copy of the total minted amount.
func (l *Ledger) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(&l.supply)
}

// BalanceOf returns a copy of the owner's balance.
func (l *Ledger) BalanceOf(owner common.Address) *uint256.Int {
	if b, ok := l.balances[owner]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// Mint credits freshly issued units to the owner. Used to seed scenarios and
// tests; the pool itself never mints external assets.
func (l *Ledger) Mint(owner common.Address, amount *uint256.Int) {
	l.record(owner)
	l.balance(owner).Add(l.balance(owner), amount)
	l.supply.Add(&l.supply, amount)
}

// Transfer moves amount from one owner to another.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	src := l.balance(from)
	if src.Lt(amount) {
		return ErrInsufficientBalance
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
// Supply changes from Mint are rolled back alongside balances.
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
