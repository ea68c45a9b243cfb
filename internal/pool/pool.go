// Package pool implements a constant-product market maker pool: reserve
// bookkeeping, the swap invariant check with embedded fee, liquidity share
// issuance and redemption, a cumulative price oracle, and a single-asset
// flash loan facility.
package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"pairpool/internal/model"
	"pairpool/internal/shares"
	"pairpool/internal/token"
)

// FeeConfig exposes the registry's protocol fee recipient. The zero address
// means fee collection is off.
type FeeConfig interface {
	FeeTo() common.Address
}

// Emitter receives pool observations as they are committed.
type Emitter interface {
	EmitPoolEvent(ev model.PoolEvent)
}

type nopEmitter struct{}

func (nopEmitter) EmitPoolEvent(model.PoolEvent) {}

// Pool is a two-asset constant-product liquidity pool. All state is owned by
// the pool; external asset balances are read-only observations except for
// the transfers the pool itself issues.
type Pool struct {
	log  *zap.Logger
	emit Emitter
	now  func() uint64

	registry common.Address
	feeCfg   FeeConfig

	addr   common.Address
	token0 token.Asset
	token1 token.Asset
	shares *shares.Ledger

	reserve0           uint256.Int // bounded to 112 bits
	reserve1           uint256.Int // bounded to 112 bits
	blockTimestampLast uint32
	price0Cumulative   uint256.Int // wraps mod 2^256
	price1Cumulative   uint256.Int // wraps mod 2^256
	kLast              uint256.Int // reserve0*reserve1 at the last fee checkpoint

	locked bool
}

// New builds an uninitialized pool. Only the registry identified here may
// later call Initialize.
func New(registry, addr common.Address, feeCfg FeeConfig, now func() uint64, logger *zap.Logger, emit Emitter) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emit == nil {
		emit = nopEmitter{}
	}
	return &Pool{
		log:      logger,
		emit:     emit,
		now:      now,
		registry: registry,
		feeCfg:   feeCfg,
		addr:     addr,
		shares:   shares.NewLedger(),
	}
}

// Initialize assigns the asset pair. It is a one-time operation restricted
// to the registry; the registry guarantees the pair is distinct, non-zero,
// and canonically ordered.
func (p *Pool) Initialize(caller common.Address, token0, token1 token.Asset) error {
	return p.run(func() error {
		if caller != p.registry || p.token0 != nil {
			return ErrForbidden
		}
		p.token0 = token0
		p.token1 = token1
		return nil
	})
}

// Address returns the pool's own custody identity.
func (p *Pool) Address() common.Address { return p.addr }

// Token0 returns the first asset identifier of the canonical pair.
func (p *Pool) Token0() common.Address {
	if p.token0 == nil {
		return common.Address{}
	}
	return p.token0.Address()
}

// Token1 returns the second asset identifier of the canonical pair.
func (p *Pool) Token1() common.Address {
	if p.token1 == nil {
		return common.Address{}
	}
	return p.token1.Address()
}

// Shares exposes the pool's liquidity share ledger.
func (p *Pool) Shares() *shares.Ledger { return p.shares }

// GetReserves returns the last committed reserve snapshot and its timestamp.
func (p *Pool) GetReserves() (reserve0, reserve1 *uint256.Int, blockTimestampLast uint32) {
	return p.reserve0.Clone(), p.reserve1.Clone(), p.blockTimestampLast
}

// KLast returns the invariant checkpoint from the last protocol fee
// realization; zero means no accrual is pending.
func (p *Pool) KLast() *uint256.Int { return p.kLast.Clone() }

// CumulativePrices returns the current oracle accumulators.
func (p *Pool) CumulativePrices() (price0, price1 *uint256.Int) {
	return p.price0Cumulative.Clone(), p.price1Cumulative.Clone()
}

// Mint issues liquidity shares to `to` for assets already transferred into
// the pool's custody. The deposited amounts are inferred from the balance
// growth over the last reserve snapshot.
func (p *Pool) Mint(sender, to common.Address) (*uint256.Int, error) {
	liquidity := new(uint256.Int)
	err := p.run(func() error {
		if p.token0 == nil {
			return ErrForbidden
		}
		reserve0, reserve1, _ := p.GetReserves()
		balance0 := p.token0.BalanceOf(p.addr)
		balance1 := p.token1.BalanceOf(p.addr)
		amount0, borrow0 := new(uint256.Int).SubOverflow(balance0, reserve0)
		amount1, borrow1 := new(uint256.Int).SubOverflow(balance1, reserve1)
		if borrow0 || borrow1 {
			return errUnderflow
		}

		feeOn := p.mintFee(reserve0, reserve1)
		totalShares := p.shares.TotalSupply() // includes any fee mint
		if totalShares.IsZero() {
			root := sqrtFloor(new(uint256.Int).Mul(amount0, amount1))
			if !root.Gt(minSupply) {
				return ErrInsufficientLiquidityMinted
			}
			liquidity.Sub(root, minSupply)
			// The first MINIMUM_LIQUIDITY shares are locked at the zero
			// address so the pool can never be drained back to a state a
			// single depositor could reprice cheaply.
			p.shares.Mint(common.Address{}, minSupply)
		} else {
			l0 := new(uint256.Int).Mul(amount0, totalShares)
			l0.Div(l0, reserve0)
			l1 := new(uint256.Int).Mul(amount1, totalShares)
			l1.Div(l1, reserve1)
			if l1.Lt(l0) {
				l0 = l1
			}
			if l0.IsZero() {
				return ErrInsufficientLiquidityMinted
			}
			liquidity.Set(l0)
		}
		p.shares.Mint(to, liquidity)

		if err := p.update(balance0, balance1); err != nil {
			return err
		}
		if feeOn {
			p.kLast.Mul(&p.reserve0, &p.reserve1)
		}
		p.emitEvent(model.EventMint, model.MintEventData{
			Sender:  sender.Hex(),
			Amount0: amount0.Dec(),
			Amount1: amount1.Dec(),
		})
		p.log.Debug("mint",
			zap.String("sender", sender.Hex()),
			zap.String("amount0", amount0.Dec()),
			zap.String("amount1", amount1.Dec()),
			zap.String("liquidity", liquidity.Dec()),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return liquidity, nil
}

// Burn redeems the shares sitting on the pool's own share balance for a
// proportional slice of the current asset balances, paid to `to`.
func (p *Pool) Burn(sender, to common.Address) (*uint256.Int, *uint256.Int, error) {
	amount0 := new(uint256.Int)
	amount1 := new(uint256.Int)
	err := p.run(func() error {
		if p.token0 == nil {
			return ErrForbidden
		}
		reserve0, reserve1, _ := p.GetReserves()
		balance0 := p.token0.BalanceOf(p.addr)
		balance1 := p.token1.BalanceOf(p.addr)
		liquidity := p.shares.BalanceOf(p.addr)

		feeOn := p.mintFee(reserve0, reserve1)
		totalShares := p.shares.TotalSupply()
		// Payout is pro-rata against actual balances, not reserves, so
		// assets sent directly to the pool are distributed too.
		amount0.Mul(liquidity, balance0)
		amount0.Div(amount0, totalShares)
		amount1.Mul(liquidity, balance1)
		amount1.Div(amount1, totalShares)
		if amount0.IsZero() || amount1.IsZero() {
			return ErrInsufficientLiquidityBurned
		}
		if err := p.shares.Burn(p.addr, liquidity); err != nil {
			return err
		}
		if err := p.token0.Transfer(p.addr, to, amount0); err != nil {
			return err
		}
		if err := p.token1.Transfer(p.addr, to, amount1); err != nil {
			return err
		}
		balance0 = p.token0.BalanceOf(p.addr)
		balance1 = p.token1.BalanceOf(p.addr)

		if err := p.update(balance0, balance1); err != nil {
			return err
		}
		if feeOn {
			p.kLast.Mul(&p.reserve0, &p.reserve1)
		}
		p.emitEvent(model.EventBurn, model.BurnEventData{
			Sender:  sender.Hex(),
			Amount0: amount0.Dec(),
			Amount1: amount1.Dec(),
			To:      to.Hex(),
		})
		p.log.Debug("burn",
			zap.String("sender", sender.Hex()),
			zap.String("amount0", amount0.Dec()),
			zap.String("amount1", amount1.Dec()),
			zap.String("to", to.Hex()),
		)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// Swap sends the requested output amounts to `to` and then verifies the
// constant-product invariant over the fee-adjusted post-trade balances.
// Inputs must already be in the pool's balance; there is no callback on
// this path.
func (p *Pool) Swap(sender common.Address, amount0Out, amount1Out *uint256.Int, to common.Address, deadline uint64) error {
	return p.run(func() error {
		if p.token0 == nil {
			return ErrForbidden
		}
		if p.now() > deadline {
			return ErrExpired
		}
		if amount0Out.IsZero() && amount1Out.IsZero() {
			return ErrInsufficientOutputAmount
		}
		reserve0, reserve1, _ := p.GetReserves()
		if !amount0Out.Lt(reserve0) || !amount1Out.Lt(reserve1) {
			return ErrInsufficientLiquidity
		}
		if to == p.token0.Address() || to == p.token1.Address() {
			return ErrInvalidTo
		}

		// Optimistic transfer; the invariant check below decides whether
		// the call survives.
		if !amount0Out.IsZero() {
			if err := p.token0.Transfer(p.addr, to, amount0Out); err != nil {
				return err
			}
		}
		if !amount1Out.IsZero() {
			if err := p.token1.Transfer(p.addr, to, amount1Out); err != nil {
				return err
			}
		}
		balance0 := p.token0.BalanceOf(p.addr)
		balance1 := p.token1.BalanceOf(p.addr)
		amount0In := inferInput(balance0, reserve0, amount0Out)
		amount1In := inferInput(balance1, reserve1, amount1Out)
		if amount0In.IsZero() && amount1In.IsZero() {
			return ErrInsufficientInputAmount
		}

		// balanceAdjusted = balance*1000 - amountIn*3, i.e. a 0.3% fee on
		// whichever asset was paid in.
		adjusted0 := new(uint256.Int).Mul(balance0, thousand)
		adjusted0.Sub(adjusted0, new(uint256.Int).Mul(amount0In, three))
		adjusted1 := new(uint256.Int).Mul(balance1, thousand)
		adjusted1.Sub(adjusted1, new(uint256.Int).Mul(amount1In, three))
		left := new(uint256.Int).Mul(adjusted0, adjusted1)
		right := new(uint256.Int).Mul(reserve0, reserve1)
		right.Mul(right, kScale)
		if left.Lt(right) {
			return ErrK
		}

		if err := p.update(balance0, balance1); err != nil {
			return err
		}
		p.emitEvent(model.EventSwap, model.SwapEventData{
			Sender:     sender.Hex(),
			Amount0In:  amount0In.Dec(),
			Amount1In:  amount1In.Dec(),
			Amount0Out: amount0Out.Dec(),
			Amount1Out: amount1Out.Dec(),
			To:         to.Hex(),
		})
		p.log.Debug("swap",
			zap.String("sender", sender.Hex()),
			zap.String("amount0_in", amount0In.Dec()),
			zap.String("amount1_in", amount1In.Dec()),
			zap.String("amount0_out", amount0Out.Dec()),
			zap.String("amount1_out", amount1Out.Dec()),
			zap.String("to", to.Hex()),
		)
		return nil
	})
}

// Sync reconciles the reserve snapshot to the actual balances without
// otherwise changing state.
func (p *Pool) Sync() error {
	return p.run(func() error {
		if p.token0 == nil {
			return ErrForbidden
		}
		return p.update(p.token0.BalanceOf(p.addr), p.token1.BalanceOf(p.addr))
	})
}

// Skim transfers any balance in excess of the reserves to `to`.
func (p *Pool) Skim(to common.Address) error {
	return p.run(func() error {
		if p.token0 == nil {
			return ErrForbidden
		}
		excess0 := p.token0.BalanceOf(p.addr)
		excess0.Sub(excess0, &p.reserve0)
		excess1 := p.token1.BalanceOf(p.addr)
		excess1.Sub(excess1, &p.reserve1)
		if !excess0.IsZero() {
			if err := p.token0.Transfer(p.addr, to, excess0); err != nil {
				return err
			}
		}
		if !excess1.IsZero() {
			if err := p.token1.Transfer(p.addr, to, excess1); err != nil {
				return err
			}
		}
		return nil
	})
}

// update commits a new reserve snapshot and advances the cumulative price
// accumulators. It is the sole writer of reserves and the final step of
// every balance-changing operation.
func (p *Pool) update(balance0, balance1 *uint256.Int) error {
	if balance0.Gt(maxUint112) || balance1.Gt(maxUint112) {
		return ErrOverflow
	}
	blockTimestamp := uint32(p.now())
	// Wrapping subtraction: a small positive elapsed time comes out even
	// when the clock itself has wrapped since the last update.
	timeElapsed := blockTimestamp - p.blockTimestampLast
	if timeElapsed > 0 && !p.reserve0.IsZero() && !p.reserve1.IsZero() {
		elapsed := uint256.NewInt(uint64(timeElapsed))
		delta0 := q112Price(&p.reserve1, &p.reserve0)
		delta0.Mul(delta0, elapsed)
		p.price0Cumulative.Add(&p.price0Cumulative, delta0)
		delta1 := q112Price(&p.reserve0, &p.reserve1)
		delta1.Mul(delta1, elapsed)
		p.price1Cumulative.Add(&p.price1Cumulative, delta1)
	}
	p.reserve0.Set(balance0)
	p.reserve1.Set(balance1)
	p.blockTimestampLast = blockTimestamp
	p.emitEvent(model.EventSync, model.SyncEventData{
		Reserve0: p.reserve0.Dec(),
		Reserve1: p.reserve1.Dec(),
	})
	return nil
}

// mintFee mints protocol fee shares on invariant growth since the last
// checkpoint. Returns whether a fee recipient is configured.
func (p *Pool) mintFee(reserve0, reserve1 *uint256.Int) bool {
	feeTo := common.Address{}
	if p.feeCfg != nil {
		feeTo = p.feeCfg.FeeTo()
	}
	feeOn := feeTo != (common.Address{})
	if p.kLast.IsZero() {
		return feeOn
	}
	if !feeOn {
		// Fee collection turned off clears pending accrual.
		p.kLast.Clear()
		return false
	}
	rootK := sqrtFloor(new(uint256.Int).Mul(reserve0, reserve1))
	rootKLast := sqrtFloor(&p.kLast)
	if rootK.Gt(rootKLast) {
		numerator := new(uint256.Int).Sub(rootK, rootKLast)
		numerator.Mul(numerator, p.shares.TotalSupply())
		denominator := new(uint256.Int).Mul(rootK, five)
		denominator.Add(denominator, rootKLast)
		liquidity := numerator.Div(numerator, denominator)
		if !liquidity.IsZero() {
			p.shares.Mint(feeTo, liquidity)
		}
	}
	return true
}

// inferInput derives the amount paid in as balance - (reserve - amountOut),
// floored at zero.
func inferInput(balance, reserve, amountOut *uint256.Int) *uint256.Int {
	prior := new(uint256.Int).Sub(reserve, amountOut)
	if balance.Gt(prior) {
		return prior.Sub(balance, prior)
	}
	return new(uint256.Int)
}

func (p *Pool) emitEvent(eventName string, data any) {
	p.emit.EmitPoolEvent(model.PoolEvent{
		Pool:      p.addr.Hex(),
		Type:      eventName,
		Timestamp: p.now(),
		Data:      data,
	})
}
