package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"roundtable-hq/roundtable/pkg/cachestats"
	"roundtable-hq/roundtable/pkg/config"
	"roundtable-hq/roundtable/pkg/ledger"
	"roundtable-hq/roundtable/pkg/orchestrator"
	"roundtable-hq/roundtable/pkg/processing/costs"
	"roundtable-hq/roundtable/pkg/processing/tokens"
	"roundtable-hq/roundtable/pkg/providerfactory"
	"roundtable-hq/roundtable/pkg/providers"
	"roundtable-hq/roundtable/pkg/server"
	"roundtable-hq/roundtable/pkg/snapcache"
	"roundtable-hq/roundtable/pkg/telemetry/logging"
	"roundtable-hq/roundtable/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Roundtable server",
	Long: `Start the Roundtable server with the specified configuration.

The server listens on the configured address and serves persona chat
requests, cache control operations, and cache metrics aggregation.

Examples:
  # Start with default config
  roundtable run

  # Start with custom config
  roundtable run --config /etc/roundtable/config.yaml

  # Override listen address
  roundtable run --listen 0.0.0.0:8080

  # Validate config without starting server
  roundtable run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Provider adapters
	slog.Info("initializing provider manager", "providers", len(cfg.Providers))
	manager := providerfactory.NewManager()
	defer manager.Close()

	for name, providerCfg := range cfg.Providers {
		pc := providers.ProviderConfig{
			Name:    name,
			Type:    providerCfg.Type,
			BaseURL: providerCfg.BaseURL,
			APIKey:  providerCfg.APIKey,
			Timeout: providerCfg.Timeout,
		}
		if err := manager.AddProvider(pc); err != nil {
			return fmt.Errorf("failed to initialize provider %q: %w", name, err)
		}
	}

	// Pricing table and cost calculator
	var table costs.Table
	if cfg.Pricing.TablePath != "" {
		table, err = costs.LoadTable(cfg.Pricing.TablePath)
		if err != nil {
			return fmt.Errorf("failed to load pricing table: %w", err)
		}
	}
	calculator := costs.NewCalculator(table)

	if cfg.Pricing.TablePath != "" && cfg.Pricing.Watch {
		watcher, err := costs.NewWatcher(cfg.Pricing.TablePath, calculator, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to watch pricing table: %w", err)
		}
		defer watcher.Close()
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("pricing watcher exited", "error", err)
			}
		}()
	}

	estimator := tokens.NewEstimator(cfg.Pricing.EstimatorRatios)

	// Cost ledger
	var costStore ledger.Store
	switch cfg.Ledger.Backend {
	case "sqlite":
		sqliteCfg := ledger.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Ledger.SQLitePath
		store, err := ledger.NewSQLiteStore(sqliteCfg)
		if err != nil {
			return fmt.Errorf("failed to open cost ledger: %w", err)
		}
		defer store.Close()
		costStore = store
	default:
		costStore = ledger.NewMemoryStore()
	}

	retention, err := ledger.NewRetention(costStore, &ledger.RetentionConfig{
		MaxAge:   cfg.Ledger.RetentionMaxAge,
		Schedule: cfg.Ledger.RetentionSchedule,
	})
	if err != nil {
		return fmt.Errorf("failed to schedule ledger retention: %w", err)
	}
	retention.Start()
	defer retention.Stop()

	// Snapshot cache and hit/miss event store
	cache := snapcache.New(
		snapcache.WithTTL(cfg.Cache.TTL),
		snapcache.WithMaxEntries(cfg.Cache.MaxEntries),
	)

	var eventStore cachestats.Store
	switch cfg.CacheStats.Backend {
	case "sqlite":
		store, err := cachestats.NewSQLiteStore(cfg.CacheStats.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open cache stats store: %w", err)
		}
		defer store.Close()
		eventStore = store
	default:
		eventStore = cachestats.NewMemoryStore()
	}

	collector := metrics.NewCollector(nil)

	o := orchestrator.New(manager, calculator, estimator, costStore)

	srv := server.NewServer(&cfg.Server, &cfg.Telemetry.Metrics, server.Deps{
		Orchestrator:    o,
		Providers:       manager,
		Cache:           cache,
		CacheEvents:     eventStore,
		CacheAggregator: cachestats.NewAggregator(eventStore),
		Collector:       collector,
	})

	return srv.Start(ctx)
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Roundtable %s\n", Version)
	fmt.Printf("Listening on: %s\n", cfg.Server.ListenAddress)
	fmt.Printf("Providers:    %d configured\n", len(cfg.Providers))
	fmt.Printf("Ledger:       %s\n", cfg.Ledger.Backend)
	fmt.Println()
}
