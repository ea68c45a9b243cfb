// Package sim replays scripted pool scenarios deterministically and feeds
// the resulting observations into an event sink.
package sim

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"pairpool/internal/model"
	"pairpool/internal/pool"
	"pairpool/internal/registry"
	"pairpool/internal/storage"
	"pairpool/internal/token"
)

// RunConfig holds runtime settings for a scenario run.
type RunConfig struct {
	Scenario  Scenario
	BatchSize int
}

// Runner executes a scenario against a fresh registry, pool, and ledgers.
type Runner struct {
	cfg    RunConfig
	sink   storage.EventSink
	logger *zap.Logger

	clock   uint64
	rec     *Recorder
	reg     *registry.Registry
	pool    *pool.Pool
	ledger0 *token.Ledger
	ledger1 *token.Ledger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, sink storage.EventSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		rec:    NewRecorder(),
	}
}

// Run executes the scenario steps in order, flushing event batches to the
// sink as it goes.
func (r *Runner) Run(ctx context.Context) error {
	if r.sink == nil {
		return fmt.Errorf("event sink is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	sc := r.cfg.Scenario

	r.clock = sc.StartTime
	if r.clock == 0 {
		r.clock = 1
	}

	r.ledger0 = token.NewLedger(AccountAddress("token/"+sc.Token0.Symbol), sc.Token0.Symbol)
	r.ledger1 = token.NewLedger(AccountAddress("token/"+sc.Token1.Symbol), sc.Token1.Symbol)

	admin := AccountAddress("admin")
	r.reg = registry.New(admin, r.now, r.logger, r.rec)
	if sc.FeeTo != "" {
		if err := r.reg.SetFeeTo(admin, AccountAddress(sc.FeeTo)); err != nil {
			return fmt.Errorf("set fee recipient: %w", err)
		}
	}

	p, err := r.reg.EnsurePool(r.ledger0, r.ledger1)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	r.pool = p

	r.logger.Info("scenario start",
		zap.String("name", sc.Name),
		zap.String("pool", p.Address().Hex()),
		zap.String("token0", r.ledger0.Symbol()),
		zap.String("token1", r.ledger1.Symbol()),
		zap.Int("steps", len(sc.Steps)),
	)

	for i, step := range sc.Steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.execute(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		if len(r.rec.records) >= r.cfg.BatchSize {
			if err := r.flush(); err != nil {
				return err
			}
		}
	}
	if err := r.flush(); err != nil {
		return err
	}

	reserve0, reserve1, _ := r.pool.GetReserves()
	r.logger.Info("scenario complete",
		zap.String("reserve0", reserve0.Dec()),
		zap.String("reserve1", reserve1.Dec()),
		zap.String("total_shares", r.pool.Shares().TotalSupply().Dec()),
	)
	return nil
}

// FinalState returns the committed pool state after a run, for persistence.
func (r *Runner) FinalState() model.PoolState {
	reserve0, reserve1, ts := r.pool.GetReserves()
	price0, price1 := r.pool.CumulativePrices()
	return model.PoolState{
		Pool:               r.pool.Address().Hex(),
		Token0:             r.pool.Token0().Hex(),
		Token1:             r.pool.Token1().Hex(),
		Reserve0:           reserve0.Dec(),
		Reserve1:           reserve1.Dec(),
		TotalShares:        r.pool.Shares().TotalSupply().Dec(),
		Price0Cumulative:   price0.Dec(),
		Price1Cumulative:   price1.Dec(),
		BlockTimestampLast: ts,
	}
}

func (r *Runner) execute(step Step) error {
	switch step.Op {
	case "advance":
		r.clock += step.Advance
		return nil
	case "fund":
		ledger, err := r.asset(step.Asset)
		if err != nil {
			return err
		}
		amount, err := parseAmount(step.Amount)
		if err != nil {
			return err
		}
		ledger.Mint(AccountAddress(step.To), amount)
		return nil
	case "deposit":
		from := AccountAddress(step.From)
		if err := r.transferIn(r.ledger0, from, step.Amount0); err != nil {
			return err
		}
		return r.transferIn(r.ledger1, from, step.Amount1)
	case "mint":
		_, err := r.pool.Mint(AccountAddress(step.From), AccountAddress(step.To))
		return err
	case "swap":
		amount0Out, err := parseAmount(step.Amount0Out)
		if err != nil {
			return err
		}
		amount1Out, err := parseAmount(step.Amount1Out)
		if err != nil {
			return err
		}
		deadline := step.Deadline
		if deadline == 0 {
			deadline = r.clock
		}
		return r.pool.Swap(AccountAddress(step.From), amount0Out, amount1Out, AccountAddress(step.To), deadline)
	case "burn":
		from := AccountAddress(step.From)
		liquidity, err := parseAmount(step.Shares)
		if err != nil {
			return err
		}
		if err := r.pool.Shares().Transfer(from, r.pool.Address(), liquidity); err != nil {
			return err
		}
		_, _, err = r.pool.Burn(from, AccountAddress(step.To))
		return err
	case "flash_loan":
		ledger, err := r.asset(step.Asset)
		if err != nil {
			return err
		}
		amount, err := parseAmount(step.Amount)
		if err != nil {
			return err
		}
		from := AccountAddress(step.From)
		borrower := NewRepayingBorrower(from, r.pool.Address(), r.ledger0, r.ledger1)
		return r.pool.FlashLoan(from, borrower, ledger.Address(), amount, nil)
	case "sync":
		return r.pool.Sync()
	case "skim":
		return r.pool.Skim(AccountAddress(step.To))
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (r *Runner) transferIn(ledger *token.Ledger, from common.Address, amount string) error {
	if amount == "" {
		return nil
	}
	value, err := parseAmount(amount)
	if err != nil {
		return err
	}
	if value.IsZero() {
		return nil
	}
	return ledger.Transfer(from, r.pool.Address(), value)
}

func (r *Runner) asset(name string) (*token.Ledger, error) {
	switch name {
	case "token0":
		return r.ledger0, nil
	case "token1":
		return r.ledger1, nil
	default:
		return nil, fmt.Errorf("unknown asset %q (want token0 or token1)", name)
	}
}

func (r *Runner) flush() error {
	batch := r.rec.Drain()
	if len(batch) == 0 {
		return nil
	}
	if err := r.sink.PutEventBatch(batch); err != nil {
		return fmt.Errorf("store events: %w", err)
	}
	r.logger.Info("batch complete", zap.Int("events", len(batch)))
	return nil
}

func (r *Runner) now() uint64 { return r.clock }

// AccountAddress derives a stable address for a scenario account name.
func AccountAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("pairpool/account/" + name))[12:])
}

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return amount, nil
}
