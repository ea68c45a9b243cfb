package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Asset is the capability the pool holds over an external asset: a balance
// query plus a transfer. The pool never assumes anything about the asset's
// internal mechanics.
//
// Snapshot and RevertToSnapshot exist because every pool operation is
// all-or-nothing: transfers issued optimistically mid-call must be unwound
// together with the failure that follows them.
type Asset interface {
	Address() common.Address
	BalanceOf(owner common.Address) *uint256.Int
	Transfer(from, to common.Address, amount *uint256.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
}
