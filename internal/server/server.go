// Package server exposes the recipe tool over HTTP, together with health,
// readiness and Prometheus endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hession/culinai/internal/config"
	"github.com/hession/culinai/internal/logger"
	"github.com/hession/culinai/internal/recipe"
)

const name = "culinai-server"

// Resolver resolves loosely typed tool input. *recipe.Resolver implements it.
type Resolver interface {
	ResolveInput(ctx context.Context, in recipe.Input, defaultMode recipe.Mode) recipe.Result
}

// Config holds server configuration
type Config struct {
	Address string
	Port    int

	// Rate limiting configuration. A RateLimit of zero disables limiting.
	RateLimit      rate.Limit // requests per second
	RateLimitBurst int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// DefaultMode applies when a request does not set "detailed"
	DefaultMode recipe.Mode
	Version     string
}

// NewConfig converts the server section of the application config.
func NewConfig(cfg *config.Config, version string) *Config {
	sc := cfg.Server
	return &Config{
		Address:         sc.Address,
		Port:            sc.Port,
		RateLimit:       rate.Limit(sc.RateLimit),
		RateLimitBurst:  sc.RateLimitBurst,
		ReadTimeout:     time.Duration(sc.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:    time.Duration(sc.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: time.Duration(sc.ShutdownSeconds) * time.Second,
		DefaultMode:     cfg.Agent.DefaultMode(),
		Version:         version,
	}
}

// Server represents the HTTP server
type Server struct {
	config      *Config
	resolver    Resolver
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	mu          sync.RWMutex
	ready       bool
}

// New creates a server that answers recipe requests with resolver
func New(cfg *Config, resolver Resolver) *Server {
	s := &Server{
		config:      cfg,
		resolver:    resolver,
		rateLimiter: newLimiter(cfg.RateLimit, cfg.RateLimitBurst),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      s.setupRoutes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     stdlog.New(logger.Writer(logger.ERROR), name+": ", 0),
	}
	return s
}

func newLimiter(limit rate.Limit, burst int) *rate.Limiter {
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// system endpoints are not rate limited
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/recipe", s.withMiddleware(s.handleRecipe))
	return mux
}

// SetReady marks the server as ready to serve traffic
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

func (s *Server) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.SetReady(true)
	logger.Info("server: listening", "address", s.httpServer.Addr, "version", s.config.Version)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.SetReady(false)
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	logger.Info("server: shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Run serves until SIGINT or SIGTERM
func Run(ctx context.Context, cfg *Config, resolver Resolver) error {
	server := New(cfg, resolver)

	logger.Info("server: config",
		"address", server.Addr(),
		"rateLimit", float64(cfg.RateLimit),
		"rateLimitBurst", cfg.RateLimitBurst,
		"readTimeout", cfg.ReadTimeout,
		"writeTimeout", cfg.WriteTimeout,
		"shutdownTimeout", cfg.ShutdownTimeout,
		"defaultMode", cfg.DefaultMode.String(),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server: stopped gracefully")
	return nil
}
