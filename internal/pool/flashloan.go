package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"pairpool/internal/model"
	"pairpool/internal/token"
)

// CallbackSuccess is the acknowledgement a borrower must return from its
// callback for the loan to be accepted.
var CallbackSuccess = crypto.Keccak256Hash([]byte("ERC3156FlashBorrower.onFlashLoan"))

// Borrower receives flash loaned funds and must return CallbackSuccess
// after arranging repayment of amount plus fee to the pool.
type Borrower interface {
	Address() common.Address
	OnFlashLoan(initiator, asset common.Address, amount, fee *uint256.Int, data []byte) (common.Hash, error)
}

// MaxFlashLoan reports how much of the asset can be borrowed: the pool's
// current balance, or zero for an unsupported asset.
func (p *Pool) MaxFlashLoan(asset common.Address) *uint256.Int {
	if tok := p.asset(asset); tok != nil {
		return tok.BalanceOf(p.addr)
	}
	return new(uint256.Int)
}

// FlashFee returns the fee owed on a loan of the given amount.
func (p *Pool) FlashFee(asset common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if p.asset(asset) == nil {
		return nil, ErrInvalidToken
	}
	return flashFee(amount), nil
}

// FlashLoan lends `amount` of one pool asset to the borrower for the
// duration of its callback. Repayment of amount plus fee is verified by a
// balance check; reserves are deliberately left untouched, so the fee sits
// in the pool's real balance until the next reserve update reconciles it.
func (p *Pool) FlashLoan(sender common.Address, borrower Borrower, asset common.Address, amount *uint256.Int, data []byte) error {
	return p.run(func() error {
		tok := p.asset(asset)
		if tok == nil {
			return ErrInvalidToken
		}
		fee := flashFee(amount)
		before := tok.BalanceOf(p.addr)
		if err := tok.Transfer(p.addr, borrower.Address(), amount); err != nil {
			return err
		}
		ack, err := borrower.OnFlashLoan(sender, asset, amount, fee, data)
		if err != nil {
			return fmt.Errorf("flash loan callback: %w", err)
		}
		if ack != CallbackSuccess {
			return ErrInvalidFlashLoanCallback
		}
		after := tok.BalanceOf(p.addr)
		owed := new(uint256.Int).Add(before, fee)
		if after.Lt(owed) {
			return ErrInsufficientFlashLoanRepayment
		}
		p.emitEvent(model.EventFlashLoan, model.FlashLoanEventData{
			Sender:   sender.Hex(),
			Borrower: borrower.Address().Hex(),
			Token:    asset.Hex(),
			Amount:   amount.Dec(),
			Fee:      fee.Dec(),
		})
		p.log.Debug("flash loan",
			zap.String("borrower", borrower.Address().Hex()),
			zap.String("token", asset.Hex()),
			zap.String("amount", amount.Dec()),
			zap.String("fee", fee.Dec()),
		)
		return nil
	})
}

// flashFee is amount*3/1000, floored.
func flashFee(amount *uint256.Int) *uint256.Int {
	fee := new(uint256.Int).Mul(amount, three)
	return fee.Div(fee, thousand)
}

func (p *Pool) asset(addr common.Address) token.Asset {
	if p.token0 != nil && addr == p.token0.Address() {
		return p.token0
	}
	if p.token1 != nil && addr == p.token1.Address() {
		return p.token1
	}
	return nil
}
