// Package http serves the operational endpoints of a process embedding the
// secrets cache: Prometheus metrics, liveness and readiness. It never exposes
// secret values.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/secretcache/internal/metrics"
	secretsDomain "github.com/allisson/secretcache/internal/secrets/domain"
)

// CacheStatus is the part of the secrets cache the readiness probe reads.
type CacheStatus interface {
	State() secretsDomain.State
	KeyVersion() int
}

// Server is the ops HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
	cache  CacheStatus
}

// NewServer builds the router. metricsProvider may be nil, in which case
// /metrics is not mounted.
func NewServer(
	host string,
	port int,
	logger *slog.Logger,
	cache CacheStatus,
	metricsProvider *metrics.Provider,
) (*Server, error) {
	s := &Server{
		logger: logger,
		cache:  cache,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))

	if metricsProvider != nil {
		httpMetrics, err := metrics.HTTPMetricsMiddleware(
			metricsProvider.MeterProvider(),
			metricsProvider.Namespace(),
		)
		if err != nil {
			return nil, err
		}
		router.Use(httpMetrics)
		router.GET("/metrics", gin.WrapH(metricsProvider.Handler()))
	}

	router.GET("/healthz", s.healthHandler)
	router.GET("/readyz", s.readinessHandler)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting ops server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start ops server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ops server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only once the cache has a derived master key.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"secrets_cache": "missing"},
		})
		return
	}

	state := s.cache.State()
	if state != secretsDomain.StateReady {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"secrets_cache": state.String()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"components":  gin.H{"secrets_cache": state.String()},
		"key_version": s.cache.KeyVersion(),
	})
}
