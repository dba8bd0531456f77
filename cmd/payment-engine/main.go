package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/yahgos/payment-engine/internal/adapter/csvio"
	"github.com/yahgos/payment-engine/internal/adapter/ops"
	"github.com/yahgos/payment-engine/internal/engine"
	"github.com/yahgos/payment-engine/internal/infrastructure/config"
	"github.com/yahgos/payment-engine/internal/infrastructure/logger"
	"github.com/yahgos/payment-engine/internal/infrastructure/metrics"
)

// version is stamped by the build.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	workers   int
	queueSize int
	output    string
	strict    bool
	logLevel  string
	logFormat string
	opsAddr   string
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment-engine",
		Short: "Stream a transaction log into closing account balances",
		Long: `payment-engine reads a CSV of deposits, withdrawals and disputes,
applies them per client and prints the closing account balances as CSV
on stdout. Logs go to stderr. Configuration comes from PAYMENT_ENGINE_*
environment variables; flags override.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newProcessCmd(), newVersionCmd())

	return cmd
}

func newProcessCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "process <transactions.csv>",
		Short: "Process a transaction log and print the account report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "processing goroutines (0 = one per CPU)")
	cmd.Flags().IntVar(&opts.queueSize, "queue-size", 0, "per-worker queue size in transactions")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "stop on the first malformed input row")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console)")
	cmd.Flags().StringVar(&opts.opsAddr, "ops-addr", "", "serve /metrics and /health on this address")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "payment-engine %s\n", version)
		},
	}
}

func run(cmd *cobra.Command, path string, opts *options) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cmd, cfg, opts)

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With().Str("run", ulid.Make().String()).Logger()

	m := metrics.New()

	if cfg.OpsAddr != "" {
		srv := ops.NewServer(cfg.OpsAddr, log)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("ops endpoint shutdown failed")
			}
		}()
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src := csvio.NewReader(in, csvio.ReaderConfig{
		Strict:     cfg.Strict,
		BufferSize: cfg.ReadBuffer,
	}, log, m)

	eng := engine.New(engine.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, log, m)

	log.Info().
		Str("input", path).
		Int("workers", eng.Workers()).
		Bool("strict", cfg.Strict).
		Msg("starting run")

	snapshots, err := eng.Run(ctx, src)
	if err != nil {
		return fmt.Errorf("process %s: %w", path, err)
	}

	if skipped := src.Skipped(); skipped > 0 {
		log.Warn().Int64("rows", skipped).Msg("malformed input rows were skipped")
	}

	// The report is only written once the whole stream settled, so a
	// failed run never leaves a truncated file behind.
	out, closeOut, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := csvio.NewWriter(out).WriteAll(snapshots); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// applyOverrides lays explicitly set flags over the environment
// config.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, opts *options) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("queue-size") {
		cfg.QueueSize = opts.queueSize
	}
	if flags.Changed("strict") {
		cfg.Strict = opts.strict
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("ops-addr") {
		cfg.OpsAddr = opts.opsAddr
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
