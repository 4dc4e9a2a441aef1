package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matrixise/geb-ledger/internal/blockchain"
	"github.com/matrixise/geb-ledger/internal/config"
	"github.com/matrixise/geb-ledger/internal/entity"
	"github.com/matrixise/geb-ledger/internal/health"
	"github.com/matrixise/geb-ledger/internal/indexer"
	"github.com/matrixise/geb-ledger/internal/logger"
	"github.com/matrixise/geb-ledger/internal/scheduler"
	"github.com/matrixise/geb-ledger/internal/storage"
)

var (
	interval string
	once     bool
	dryRun   bool
	migrate  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ledger indexer",
	Long: `Fetch the logs of the configured contracts from the last applied block up to
the confirmed chain head and apply them to the ledger, once or on a schedule.`,
	RunE: runLedger,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&interval, "interval", "", "run interval - duration (5m, 1h) or cron (\"*/5 * * * *\") - empty for one-time run")
	runCmd.Flags().BoolVar(&once, "once", false, "run once and exit (default)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "apply events to an in-memory ledger, nothing is persisted")
	runCmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before starting (PostgreSQL store)")
}

// ledgerStore is an entity.Store the daemon can ping and close.
type ledgerStore interface {
	entity.Store
	Ping(ctx context.Context) error
	Close()
}

func runLedger(cmd *cobra.Command, args []string) error {
	logger.Setup(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		slog.Info("Signal received, graceful shutdown", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return err
	}
	if dryRun {
		cfg.Store = config.StoreMemory
	}

	if cfg.LogLevel != "" && !cmd.Flags().Changed("log-level") {
		logger.Setup(cfg.LogLevel)
	}

	runInterval := interval
	if runInterval == "" {
		runInterval = cfg.Interval
	}

	slog.Info("Configuration loaded",
		"config_path", cfgFile,
		"contracts", len(cfg.Contracts),
		"store", cfg.Store,
		"start_block", cfg.StartBlock,
		"schedule", scheduler.DescribeSchedule(runInterval, cfg.GetTimezone()),
	)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := blockchain.NewClient(cfg.RPCUrls, cfg.ChainID)
	if err != nil {
		slog.Error("Failed to connect to RPC", "error", err)
		return err
	}
	defer client.Close()

	if len(cfg.RPCUrls) == 1 {
		slog.Info("RPC connection established", "endpoint", cfg.RPCUrls[0])
	} else {
		slog.Info("RPC connection established with failover",
			"endpoints", len(cfg.RPCUrls),
			"primary", cfg.RPCUrls[0])
	}

	contracts, err := cfg.WatchedContracts()
	if err != nil {
		return err
	}
	decoder, err := blockchain.NewDecoder(contracts)
	if err != nil {
		return fmt.Errorf("contract configuration: %w", err)
	}

	dispatcher := indexer.NewDispatcher(store, client, indexer.DefaultCursorID)
	runner := indexer.NewRunner(blockchain.NewLogSource(client, decoder), dispatcher, indexer.RunnerConfig{
		StartBlock:    cfg.StartBlock,
		BatchSize:     cfg.BatchSize,
		Confirmations: cfg.Confirmations,
	})

	if runInterval == "" || once {
		_, err := runner.Run(ctx)
		return err
	}

	return runDaemon(ctx, cfg, runInterval, runner, store, client, dispatcher)
}

func openStore(ctx context.Context, cfg *config.Config) (ledgerStore, error) {
	if !cfg.UsesPostgres() {
		slog.Warn("Using in-memory store, the ledger is lost on exit")
		return storage.NewMemoryStore(), nil
	}

	databaseURL, err := config.DatabaseURL()
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return nil, err
	}

	if migrate {
		if err := storage.RunMigrations(ctx, databaseURL); err != nil {
			slog.Error("Failed to apply migrations", "error", err)
			return nil, err
		}
	}

	store, err := storage.NewStore(ctx, databaseURL)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		return nil, err
	}
	slog.Info("PostgreSQL connection established")
	return store, nil
}

func runDaemon(
	ctx context.Context,
	cfg *config.Config,
	runInterval string,
	runner *indexer.Runner,
	store ledgerStore,
	client *blockchain.Client,
	dispatcher *indexer.Dispatcher,
) error {
	slog.Info("Starting daemon mode with scheduler",
		"interval", runInterval,
		"timezone", cfg.GetTimezone().String(),
		"run_immediately", cfg.ShouldRunImmediately())

	var healthChecker *health.Checker
	jobFunc := func(jobCtx context.Context) error {
		_, err := runner.Run(jobCtx)
		if healthChecker != nil {
			healthChecker.UpdateLastRun(err == nil)
		}
		return err
	}

	sched, err := scheduler.NewScheduler(ctx, scheduler.Config{
		Interval:       runInterval,
		Timezone:       cfg.GetTimezone(),
		RunImmediately: cfg.ShouldRunImmediately(),
		Logger:         slog.Default(),
	}, jobFunc)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		return fmt.Errorf("scheduler creation failed: %w", err)
	}
	defer sched.Stop()

	expectedInterval, err := sched.GetExpectedInterval()
	if err != nil {
		expectedInterval = 5 * time.Minute
		slog.Warn("Could not determine exact interval, using conservative estimate",
			"interval", expectedInterval)
	}

	healthChecker = health.NewChecker(store, client, dispatcher, expectedInterval)

	httpPort := cfg.HTTPPort
	if httpPort == 0 {
		httpPort = config.DefaultHTTPPort
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           healthChecker.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Health check server starting", "port", httpPort, "endpoints", "/health, /metrics")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "error", err)
		}
	}()

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Health server shutdown error", "error", err)
		}
	}()

	if err := sched.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	slog.Info("Daemon mode started with clock-aligned scheduling")

	<-ctx.Done()
	slog.Info("Shutdown requested, stopping daemon")
	return nil
}
