package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/bakehouse/services/orders/config"
	"example.com/bakehouse/services/orders/internal/cache"
	"example.com/bakehouse/services/orders/internal/database"
	"example.com/bakehouse/services/orders/internal/messaging"
	"example.com/bakehouse/services/orders/internal/metrics"
	"example.com/bakehouse/services/orders/internal/repositories"
	"example.com/bakehouse/services/orders/internal/search"
	"example.com/bakehouse/services/orders/internal/services"
	"example.com/bakehouse/services/orders/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that consumes order events, maintains the search index and reconciles the cached views`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return errors.Wrap(err, "failed to connect to order store")
	}
	defer database.Close(db)

	var viewCache services.ViewCache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	} else {
		viewCache = redisCache
		defer redisCache.Close()
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = &tracing.NewRelicTracer{}
	}

	metricsCollector := metrics.NewMetrics()

	var searcher services.OrderSearcher
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search")
	} else {
		searcher = elasticClient
	}

	orderRepo := repositories.NewOrderRepository(db)

	orderService := services.NewOrderService(
		orderRepo,
		messaging.NoopPublisher{},
		nil,
		searcher,
		viewCache,
		metricsCollector,
		tracer,
		nil,
		cfg.Confirm.ArmWindow,
	)

	busClient, err := messaging.NewServiceBusClient(cfg.Azure)
	if err != nil {
		return errors.Wrap(err, "failed to initialize Service Bus client")
	}
	defer busClient.Close()

	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting order event processor")
		return busClient.ProcessEvents(ctx, orderService.HandleOrderEvent)
	})

	// Fallback reconciliation for anything a lost event missed.
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				log.Info().Msg("Running fallback reconciliation job")
				if err := orderService.Reconcile(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to reconcile orders in fallback job")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
