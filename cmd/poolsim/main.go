package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pairpool/internal/config"
	"pairpool/internal/model"
	"pairpool/internal/pool"
	"pairpool/internal/sim"
	"pairpool/internal/storage"
	"pairpool/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "poolsim",
		Short:        "Constant-product pool scenario runner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pool scenario",
		RunE:  runScenario,
	}

	runCmd.Flags().String("scenario", "", "scenario JSON path")
	runCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for events and state")
	runCmd.Flags().Int("batch-size", 100, "events per sink batch")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "exact input amount")
	quoteCmd.Flags().String("amount-out", "", "exact output amount")
	quoteCmd.Flags().String("reserve-in", "", "reserve of the input asset")
	quoteCmd.Flags().String("reserve-out", "", "reserve of the output asset")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.ScenarioPath == "" {
		return fmt.Errorf("scenario path is required")
	}

	scenario, err := sim.LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink storage.EventSink
	var store *postgres.Store
	if cfg.PgDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sink = store
	} else {
		sink = storage.NewJsonlSink(cfg.Out)
	}

	runner := sim.NewRunner(sim.RunConfig{
		Scenario:  scenario,
		BatchSize: cfg.BatchSize,
	}, sink, logger)

	logger.Info("scenario run start",
		zap.String("scenario", cfg.ScenarioPath),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", store != nil),
		zap.Int("batch_size", cfg.BatchSize),
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	if store != nil {
		if err := store.UpsertPoolState(ctx, []model.PoolState{runner.FinalState()}); err != nil {
			return fmt.Errorf("store pool state: %w", err)
		}
	}
	return nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	amountIn, _ := cmd.Flags().GetString("amount-in")
	amountOut, _ := cmd.Flags().GetString("amount-out")
	reserveInStr, _ := cmd.Flags().GetString("reserve-in")
	reserveOutStr, _ := cmd.Flags().GetString("reserve-out")

	reserveIn, err := parseFlagAmount("reserve-in", reserveInStr)
	if err != nil {
		return err
	}
	reserveOut, err := parseFlagAmount("reserve-out", reserveOutStr)
	if err != nil {
		return err
	}

	switch {
	case amountIn != "":
		in, err := parseFlagAmount("amount-in", amountIn)
		if err != nil {
			return err
		}
		out, err := pool.GetAmountOut(in, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Dec())
	case amountOut != "":
		out, err := parseFlagAmount("amount-out", amountOut)
		if err != nil {
			return err
		}
		in, err := pool.GetAmountIn(out, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), in.Dec())
	default:
		return fmt.Errorf("one of --amount-in or --amount-out is required")
	}
	return nil
}

func parseFlagAmount(name, value string) (*uint256.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return amount, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
