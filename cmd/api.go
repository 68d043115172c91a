package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/bakehouse/services/orders/config"
	"example.com/bakehouse/services/orders/internal/api"
	"example.com/bakehouse/services/orders/internal/auth"
	"example.com/bakehouse/services/orders/internal/cache"
	"example.com/bakehouse/services/orders/internal/database"
	"example.com/bakehouse/services/orders/internal/messaging"
	"example.com/bakehouse/services/orders/internal/metrics"
	"example.com/bakehouse/services/orders/internal/models"
	"example.com/bakehouse/services/orders/internal/repositories"
	"example.com/bakehouse/services/orders/internal/search"
	"example.com/bakehouse/services/orders/internal/services"
	"example.com/bakehouse/services/orders/internal/tracing"
	"example.com/bakehouse/services/orders/internal/uploader"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server that manages orders, views and delivery confirmation`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return errors.Wrap(err, "failed to connect to order store")
	}
	defer database.Close(db)

	if err := models.SetupModels(db); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

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
	metricsCollector.SetHealth("order_store", true)

	var searcher services.OrderSearcher
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search")
		metricsCollector.SetHealth("search", false)
	} else {
		searcher = elasticClient
		metricsCollector.SetHealth("search", true)
	}

	var publisher messaging.EventPublisher = messaging.NoopPublisher{}
	if cfg.Azure.QueueConnStr != "" {
		busClient, err := messaging.NewServiceBusClient(cfg.Azure)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Service Bus client, continuing without events")
		} else {
			publisher = busClient
			defer busClient.Close()
		}
	}

	uploads := uploader.NewImgBBClient(cfg.Upload)
	policy := auth.NewPolicy(cfg.Auth.AllowedPrincipals)
	if policy.Size() == 0 {
		log.Warn().Msg("Allow-list is empty, every request will be refused")
	}

	orderRepo := repositories.NewOrderRepository(db)
	watcher := repositories.NewOrderWatcher(orderRepo, cfg.Feed.PollInterval)

	orderService := services.NewOrderService(
		orderRepo,
		publisher,
		uploads,
		searcher,
		viewCache,
		metricsCollector,
		tracer,
		watcher,
		cfg.Confirm.ArmWindow,
	)

	// The snapshot cache follows the live feed.
	watcher.Subscribe(orderService.RefreshSnapshot)

	server := api.NewServer(cfg, orderService, metricsCollector, policy, tracer)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("API server error")
		return err
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
