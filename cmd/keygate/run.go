package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"keygate-hq/keygate/pkg/cli"
	"keygate-hq/keygate/pkg/config"
	"keygate-hq/keygate/pkg/gate"
	"keygate-hq/keygate/pkg/quota"
	"keygate-hq/keygate/pkg/registry"
	"keygate-hq/keygate/pkg/server"
	"keygate-hq/keygate/pkg/store"
	"keygate-hq/keygate/pkg/usage"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watchConfig   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the keygate server",
	Long: `Start the keygate server with the specified configuration.

The server guards the protected data plane behind API key authentication
and per-key daily quotas, and exposes admin routes for provisioning.

Examples:
  # Start with default config
  keygate run

  # Start with custom config
  keygate run --config /etc/keygate/config.yaml

  # Override listen address
  keygate run --listen 0.0.0.0:8080

  # Validate config without starting server
  keygate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", false, "apply log-level changes from the config file at runtime")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLevel(cfg.Telemetry.Logging.Level))

	var handler slog.Handler
	if cfg.Telemetry.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	slog.SetDefault(slog.New(handler))

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Keygate v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	// Authoritative store, shared by the registry and the sqlite quota
	// backend.
	db, err := store.Open(cfg.Store.Path, cfg.Store.BusyTimeout)
	if err != nil {
		return fmt.Errorf("failed to open key store: %w", err)
	}
	defer db.Close()

	registryStore, err := registry.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("failed to initialize key registry: %w", err)
	}
	reg := registry.NewRegistry(registryStore)
	fmt.Println("✓ Key registry initialized")

	// Quota ledger
	var ledger quota.Ledger
	switch cfg.Quota.Backend {
	case "sqlite":
		ledger, err = quota.NewSQLiteLedger(db)
		if err != nil {
			return fmt.Errorf("failed to initialize quota ledger: %w", err)
		}
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Quota.Redis.Addr,
			Password: cfg.Quota.Redis.Password,
			DB:       cfg.Quota.Redis.DB,
		})
		defer rdb.Close()
		ledger = quota.NewRedisLedger(rdb, cfg.Quota.Redis.CounterTTL)
	case "memory":
		slog.Warn("memory quota backend loses counters on restart")
		ledger = quota.NewMemoryLedger()
	default:
		return fmt.Errorf("unsupported quota backend: %s", cfg.Quota.Backend)
	}
	fmt.Printf("✓ Quota ledger initialized (%s)\n", cfg.Quota.Backend)

	// Usage recording
	var recorder server.UsageRecorder
	var usageStorage usage.Storage
	if !cfg.Usage.Disabled {
		storage, err := usage.NewSQLiteStorage(&usage.SQLiteConfig{
			Path:        cfg.Usage.Path,
			WALMode:     true,
			BusyTimeout: cfg.Store.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize usage storage: %w", err)
		}
		defer storage.Close()
		usageStorage = storage

		rec := usage.NewRecorder(storage, &usage.Config{
			Enabled:      true,
			Buffer:       cfg.Usage.Buffer,
			WriteTimeout: cfg.Usage.WriteTimeout,
		})
		defer rec.Close()
		recorder = rec

		if cfg.Usage.PruneSchedule != "" {
			pruner := usage.NewPruner(storage, usage.RetentionConfig{
				RetentionDays: cfg.Usage.RetentionDays,
				PruneSchedule: cfg.Usage.PruneSchedule,
			})
			scheduler := usage.NewScheduler(pruner)
			if err := scheduler.Start(cmd.Context()); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer scheduler.Stop()
			}
		}

		fmt.Println("✓ Usage recording initialized")
	}

	// Admission gate
	g := gate.New(reg, ledger, &gate.Config{CheckTimeout: cfg.Quota.CheckTimeout})
	middleware := gate.NewMiddleware(g, credentialSources(cfg.Auth.Sources))

	// Optional runtime log-level reload
	if runFlags.watchConfig {
		watcher, err := config.NewWatcher(cfgFile, logLevel, slog.Default())
		if err != nil {
			slog.Warn("failed to create config watcher", "error", err)
		} else {
			go func() {
				if err := watcher.Watch(cmd.Context()); err != nil {
					slog.Error("config watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	srv := server.NewServer(&cfg.Server, reg, middleware, recorder, usageStorage)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a shutdown signal cancels the context or the
	// server fails.
	if err := srv.Start(cli.SetupSignalHandler()); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

func credentialSources(sources []config.SourceConfig) []gate.CredentialSource {
	out := make([]gate.CredentialSource, 0, len(sources))
	for _, s := range sources {
		out = append(out, gate.CredentialSource{
			Type:   s.Type,
			Name:   s.Name,
			Scheme: s.Scheme,
		})
	}
	return out
}
