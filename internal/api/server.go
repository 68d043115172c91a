package api

import (
	"context"
	"net/http"
	"time"

	"example.com/bakehouse/services/orders/config"
	"example.com/bakehouse/services/orders/internal/api/handlers"
	"example.com/bakehouse/services/orders/internal/api/middleware"
	"example.com/bakehouse/services/orders/internal/auth"
	"example.com/bakehouse/services/orders/internal/metrics"
	"example.com/bakehouse/services/orders/internal/services"
	"example.com/bakehouse/services/orders/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	config       config.Config
	router       *gin.Engine
	httpServer   *http.Server
	orderService *services.OrderService
	metrics      *metrics.Metrics
	policy       *auth.Policy
	tracer       tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, orderService *services.OrderService, m *metrics.Metrics, policy *auth.Policy, tracer tracing.Tracer) *Server {
	server := &Server{
		config:       cfg,
		orderService: orderService,
		metrics:      m,
		policy:       policy,
		tracer:       tracer,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	authn := middleware.Authenticate(s.policy)

	ordersHandler := handlers.NewOrdersHandler(s.orderService, s.tracer)
	ordersHandler.RegisterRoutes(router, authn)

	metricsHandler := handlers.NewMetricsHandler(s.metrics)
	metricsHandler.RegisterRoutes(router)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
