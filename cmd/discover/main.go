package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"whalewire/internal/config"
	"whalewire/internal/discovery"
	"whalewire/internal/storage/migrations"
	pgstore "whalewire/internal/storage/postgres"
	"whalewire/internal/ton"
)

// One-shot whale discovery: run a single aggregation cycle and exit.
// Useful for seeding the monitored address set before starting the
// daemon, or for cron-driven setups.
func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	limit := flag.Int("limit", 0, "Override discovery limit")
	flag.Parse()

	logger := log.New(os.Stdout, "[discover] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *limit > 0 {
		cfg.Discovery.Limit = *limit
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}

	providers := []discovery.AssetTopHoldersProvider{
		ton.NewNativeTopHoldersProvider(cfg.Toncenter.Endpoint, ton.WithProviderAPIKey(cfg.Toncenter.APIKey)),
	}
	for _, jetton := range cfg.Toncenter.Jettons {
		providers = append(providers, ton.NewJettonTopHoldersProvider(
			cfg.Toncenter.Endpoint, jetton.MasterAddress, jetton.Symbol,
			ton.WithProviderAPIKey(cfg.Toncenter.APIKey)))
	}

	runner := discovery.NewRunner(discovery.RunnerOptions{
		Aggregator: discovery.NewAggregator(discovery.AggregatorOptions{
			Providers:     providers,
			ProviderDelay: cfg.Discovery.ProviderDelay,
			Logger:        logger,
		}),
		AddressStore: pgstore.NewMonitoredAddressStore(pool),
		Chain:        "ton",
		Provider:     "tonapi",
		Limit:        cfg.Discovery.Limit,
		Logger:       logger,
	})

	return runner.RunOnce(ctx)
}
