// Package cmd wires the resources CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nepaliabroad/resources/internal/config"
	"github.com/nepaliabroad/resources/internal/logging"
	"github.com/nepaliabroad/resources/internal/metrics"
	"github.com/nepaliabroad/resources/internal/resource"
	"github.com/nepaliabroad/resources/internal/storage/memory"
	"github.com/nepaliabroad/resources/internal/storage/postgres"
)

var cfgFile string

// app holds the long-lived services shared by the commands.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  resource.Store
	close  func()
}

// newApp builds configuration, logging and the store. With dryRun set,
// or without a configured DSN, records live in memory only.
func newApp(ctx context.Context, dryRun bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()

	a := &app{cfg: cfg, logger: logger, close: func() {}}
	if dryRun || cfg.DB.DSN == "" {
		if !dryRun {
			logger.Warn("db.dsn is not set; using in-memory store")
		}
		a.store = memory.NewStore()
		return a, nil
	}

	store, err := postgres.NewStore(ctx, postgres.StoreConfig{
		DSN:             cfg.DB.DSN,
		Table:           cfg.DB.Table,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	a.store = store
	a.close = store.Close
	return a, nil
}

func (a *app) shutdown() {
	a.close()
	_ = a.logger.Sync()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Collect and validate study-abroad resource records.",
		Long: `resources collects scholarship, visa and job records from official
sources with ethical scraping (robots.txt compliance, rate limiting,
bounded retries) and validates stored records for completeness, date
correctness, staleness and link liveness.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	cmd.AddCommand(newValidateCmd(), newScrapeCmd(), newServeCmd())
	return cmd
}

// Execute runs the CLI until completion or interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
