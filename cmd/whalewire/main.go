package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whalewire/internal/admission"
	"whalewire/internal/breaker"
	"whalewire/internal/config"
	"whalewire/internal/discovery"
	"whalewire/internal/domain"
	"whalewire/internal/ingestion"
	"whalewire/internal/messaging"
	"whalewire/internal/observability"
	"whalewire/internal/storage"
	chstore "whalewire/internal/storage/clickhouse"
	"whalewire/internal/storage/migrations"
	pgstore "whalewire/internal/storage/postgres"
	"whalewire/internal/ton"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	logger := log.New(os.Stdout, "[whalewire] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = run(ctx, cfg, logger)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// meteredPublisher counts published events.
type meteredPublisher struct {
	inner   ingestion.EventPublisher
	metrics *observability.Metrics
}

func (p *meteredPublisher) Publish(ctx context.Context, event *domain.CanonicalEvent) error {
	if err := p.inner.Publish(ctx, event); err != nil {
		return err
	}
	p.metrics.EventsPublished.Inc()
	return nil
}

// timedClient observes per-fetch latency.
type timedClient struct {
	inner   ingestion.BlockchainClient
	metrics *observability.Metrics
}

func (c *timedClient) Chain() string    { return c.inner.Chain() }
func (c *timedClient) Provider() string { return c.inner.Provider() }

func (c *timedClient) GetEvents(ctx context.Context, address string, after *domain.Cursor, limit int) ([]domain.RawChainEvent, error) {
	start := time.Now()
	events, err := c.inner.GetEvents(ctx, address, after, limit)
	c.metrics.FetchLatency.WithLabelValues(c.inner.Provider()).Observe(time.Since(start).Seconds())
	return events, err
}

// meteredProvider counts top-holder provider failures per asset.
type meteredProvider struct {
	inner   discovery.AssetTopHoldersProvider
	asset   string
	metrics *observability.Metrics
}

func (p *meteredProvider) GetTopHolders(ctx context.Context, limit int) (*domain.AssetTopHolders, error) {
	holders, err := p.inner.GetTopHolders(ctx, limit)
	if err != nil {
		p.metrics.ProviderFailures.WithLabelValues(p.asset).Inc()
	}
	return holders, err
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	metrics := observability.NewMetrics("")

	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}

	leaseStore := pgstore.NewLeaseStore(pool)
	checkpointStore := pgstore.NewCheckpointStore(pool)
	eventStore := pgstore.NewEventStore(pool)
	addressStore := pgstore.NewMonitoredAddressStore(pool)

	var archive storage.EventArchiveStore
	if cfg.Clickhouse.Enabled {
		chConn, err := chstore.NewConn(ctx, cfg.Clickhouse.DSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer chConn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		archive = chstore.NewEventArchiveStore(chConn)
		logger.Println("Event archival to ClickHouse enabled")
	}

	rabbit := messaging.NewConn(cfg.Rabbit.URL)
	defer rabbit.Close()

	publisher := messaging.NewPublisher(messaging.PublisherOptions{Conn: rabbit, Logger: logger})
	defer publisher.Close()

	admitter := admission.NewHandler(admission.HandlerOptions{
		Events:      eventStore,
		Checkpoints: checkpointStore,
		Archive:     archive,
		OnAdmit: func(inserted bool) {
			if inserted {
				metrics.EventsAdmitted.Inc()
			} else {
				metrics.DuplicatesSkipped.Inc()
			}
		},
		Logger: logger,
	})

	brk := breaker.New(breaker.Options{
		FailureThreshold: cfg.Consumer.BreakerThreshold,
		Cooldown:         cfg.Consumer.BreakerCooldown,
		OnStateChange: func(from, to breaker.State) {
			logger.Printf("Circuit breaker: %s -> %s", from, to)
			metrics.BreakerState.Set(float64(to))
		},
	})

	consumer := messaging.NewConsumer(messaging.ConsumerOptions{
		Conn:    rabbit,
		Breaker: brk,
		Handler: func(ctx context.Context, msg *messaging.CanonicalEventReady) error {
			if err := admitter.Handle(ctx, msg.ToDomain()); err != nil {
				metrics.MessagesConsumed.WithLabelValues("failed").Inc()
				return err
			}
			metrics.MessagesConsumed.WithLabelValues("acked").Inc()
			return nil
		},
		MaxRetries:   cfg.Consumer.MaxRetries,
		RetryDelays:  cfg.Consumer.RetryDelays,
		OnRetry:      func(time.Duration) { metrics.MessagesRetried.Inc() },
		OnDeadLetter: func() { metrics.MessagesDeadLettered.Inc() },
		Logger:       logger,
	})

	tonClient := ton.NewClient(cfg.TonAPI.Endpoint, ton.WithAPIKey(cfg.TonAPI.APIKey))

	providers := []discovery.AssetTopHoldersProvider{
		&meteredProvider{
			inner:   ton.NewNativeTopHoldersProvider(cfg.Toncenter.Endpoint, ton.WithProviderAPIKey(cfg.Toncenter.APIKey)),
			asset:   "TON",
			metrics: metrics,
		},
	}
	for _, jetton := range cfg.Toncenter.Jettons {
		providers = append(providers, &meteredProvider{
			inner: ton.NewJettonTopHoldersProvider(
				cfg.Toncenter.Endpoint, jetton.MasterAddress, jetton.Symbol,
				ton.WithProviderAPIKey(cfg.Toncenter.APIKey)),
			asset:   jetton.Symbol,
			metrics: metrics,
		})
	}

	discoveryRunner := discovery.NewRunner(discovery.RunnerOptions{
		Aggregator: discovery.NewAggregator(discovery.AggregatorOptions{
			Providers:     providers,
			ProviderDelay: cfg.Discovery.ProviderDelay,
			Logger:        logger,
		}),
		AddressStore: addressStore,
		Chain:        tonClient.Chain(),
		Provider:     tonClient.Provider(),
		Interval:     cfg.Discovery.Interval,
		Limit:        cfg.Discovery.Limit,
		OnCycle: func(merged int, err error) {
			if err != nil {
				metrics.DiscoveryCycles.WithLabelValues("error").Inc()
				return
			}
			metrics.DiscoveryCycles.WithLabelValues("success").Inc()
			metrics.AddressesDiscovered.Set(float64(merged))
		},
		Logger: logger,
	})

	ingestionRunner := ingestion.NewRunner(ingestion.RunnerOptions{
		Coordinator: ingestion.NewCoordinator(ingestion.CoordinatorOptions{
			AddressStore: addressStore,
			Ingestor: ingestion.NewIngestor(ingestion.IngestorOptions{
				Leases:      leaseStore,
				Checkpoints: checkpointStore,
				Client:      &timedClient{inner: tonClient, metrics: metrics},
				Publisher:   &meteredPublisher{inner: publisher, metrics: metrics},
				LeaseTTL:    cfg.Ingestion.LeaseTTL,
				FetchLimit:  cfg.Ingestion.FetchLimit,
				OnLeaseSkip: func(string) { metrics.LeaseContentionSkips.Inc() },
				Logger:      logger,
			}),
			Chain:    tonClient.Chain(),
			Provider: tonClient.Provider(),
			Logger:   logger,
		}),
		Interval: cfg.Ingestion.Interval,
		OnCycle: func(result *domain.IngestionResult) {
			metrics.IngestionCycles.Inc()
			for _, entry := range result.Results {
				if entry.Error != "" {
					metrics.AddressErrors.Inc()
				}
			}
		},
		Logger: logger,
	})

	logger.Println("Starting whalewire daemon...")

	errCh := make(chan error, 3)
	go func() { errCh <- discoveryRunner.Run(ctx) }()
	go func() { errCh <- ingestionRunner.Run(ctx) }()
	go func() { errCh <- consumer.Run(ctx) }()

	return <-errCh
}
