package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ward-resolver/internal/config"
	"github.com/ward-resolver/internal/web/handlers"
	"github.com/ward-resolver/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	deps       Deps
	logger     zerolog.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(cfg *config.Config, deps Deps, logger zerolog.Logger) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	server := &Server{
		config: cfg,
		deps:   deps,
		logger: logger.With().Str("component", "http").Logger(),
	}

	// Setup routes
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// Handler returns the fully wired router
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	city := s.config.Resolution.DefaultCity

	statusHandler := &handlers.StatusHandler{Store: s.deps.Reference}
	resolveHandler := &handlers.ResolveHandler{Resolver: s.deps.Resolver, DefaultCity: city}
	searchHandler := &handlers.SearchHandler{Store: s.deps.Searcher, DefaultCity: city}
	statsHandler := &handlers.StatsHandler{Store: s.deps.Reference, DefaultCity: city}

	// Probes
	s.router.HandleFunc("/", statusHandler.Liveness).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", statusHandler.Readiness).Methods(http.MethodGet)

	if s.deps.Metrics != nil && s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Resolution
	resolve := s.router.NewRoute().Subrouter()
	resolve.HandleFunc("/resolve-ward", resolveHandler.ResolveWard).Methods(http.MethodPost, http.MethodOptions)

	// Diagnostics
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search/mohallas", searchHandler.SearchMohallas).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/search/wards", searchHandler.SearchWards).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/stats", statsHandler.GetStats).Methods(http.MethodGet, http.MethodOptions)

	// Apply middleware
	s.router.Use(middleware.RequestID(s.logger))
	s.router.Use(middleware.RequestLogging())
	if s.deps.Metrics != nil {
		s.router.Use(s.deps.Metrics.Middleware)
	}
	s.router.Use(middleware.CORS(s.config.Server.CORSOrigins...))
	s.router.Use(middleware.Timeout(s.config.Server.RequestTimeout))

	if s.config.Server.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(s.config.Server.RateLimitRPS, s.config.Server.RateLimitBurst)
		resolve.Use(limiter.Middleware)
		api.Use(limiter.Middleware)
	}

	// Authentication applies to resolution and diagnostics, never to probes
	resolve.Use(middleware.Authentication(s.config.Auth.APIKey))
	api.Use(middleware.Authentication(s.config.Auth.APIKey))
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
