package sim

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"pairpool/internal/pool"
	"pairpool/internal/token"
)

// RepayingBorrower is a well-behaved flash loan borrower: it returns the
// loan plus fee out of its own balance and acknowledges the callback.
type RepayingBorrower struct {
	addr    common.Address
	pool    common.Address
	ledgers map[common.Address]*token.Ledger
}

func NewRepayingBorrower(addr, poolAddr common.Address, ledgers ...*token.Ledger) *RepayingBorrower {
	byAddr := make(map[common.Address]*token.Ledger, len(ledgers))
	for _, l := range ledgers {
		byAddr[l.Address()] = l
	}
	return &RepayingBorrower{addr: addr, pool: poolAddr, ledgers: byAddr}
}

func (b *RepayingBorrower) Address() common.Address { return b.addr }

// OnFlashLoan implements pool.Borrower.
func (b *RepayingBorrower) OnFlashLoan(initiator, asset common.Address, amount, fee *uint256.Int, data []byte) (common.Hash, error) {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown asset %s", asset.Hex())
	}
	owed := new(uint256.Int).Add(amount, fee)
	if err := ledger.Transfer(b.addr, b.pool, owed); err != nil {
		return common.Hash{}, fmt.Errorf("repay flash loan: %w", err)
	}
	return pool.CallbackSuccess, nil
}
