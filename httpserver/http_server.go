/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpserver provides an HTTP server whose API routes are protected by a sliding-window rate limiter.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acronis/go-ratelimit/httpserver/middleware"
	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/ratelimit"
)

const (
	networkTCP  = "tcp"
	networkUnix = "unix"
)

// Opts represents options for creating HTTPServer.
type Opts struct {
	// ServiceNameInURL is a prefix for API routes (e.g., "/api/service_name/v1").
	ServiceNameInURL string
	// APIRoutes is a map of API versions to their route configuration functions.
	APIRoutes map[APIVersion]APIRoute
	// ErrorDomain is used for error response formatting.
	ErrorDomain string
	// HealthCheck is a function that performs health check logic.
	HealthCheck HealthCheck
	// MetricsHandler is a custom handler for the /metrics endpoint (Prometheus handler by default).
	MetricsHandler http.Handler
	// MetricsNamespace is used for the rate limiting Prometheus metrics.
	MetricsNamespace string
	// Listener is a pre-configured network listener to use instead of creating a new one.
	Listener net.Listener
}

// HTTPServer represents a wrapper around http.Server with additional fields and methods.
// chi.Router is used as a handler for the server.
type HTTPServer struct {
	URL             string
	HTTPServer      *http.Server
	UnixSocketPath  string
	HTTPRouter      chi.Router
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	// rateLimiter is nil when rate limiting is disabled. Only the rate limiting middleware may use it.
	rateLimiter      *ratelimit.RateLimiter
	listener         net.Listener
	port             int32
	httpServerDone   atomic.Value
	rateLimitMetrics *middleware.RateLimitPrometheusMetrics
}

// New creates a new HTTPServer with predefined logging, request ids, health-checking, metrics
// and, if enabled in the configuration, rate limiting of API requests.
func New(cfg *Config, logger log.FieldLogger, opts Opts) (*HTTPServer, error) { //nolint:gocritic // hugeParam: opts is heavy, it's ok in this case.
	routerOpts := RouterOpts{
		ServiceNameInURL: opts.ServiceNameInURL,
		APIRoutes:        opts.APIRoutes,
		ErrorDomain:      opts.ErrorDomain,
		HealthCheck:      opts.HealthCheck,
		MetricsHandler:   opts.MetricsHandler,
	}

	var limiter *ratelimit.RateLimiter
	var rateLimitMetrics *middleware.RateLimitPrometheusMetrics
	if cfg.RateLimit.Enabled {
		var err error
		if limiter, err = cfg.RateLimit.NewLimiter(); err != nil {
			return nil, fmt.Errorf("create rate limiter: %w", err)
		}
		rateLimitMetrics = middleware.NewRateLimitPrometheusMetrics(opts.MetricsNamespace)
		routerOpts.RateLimit = middleware.RateLimitWithOpts(limiter, opts.ErrorDomain, middleware.RateLimitOpts{
			ResponseStatusCode: cfg.RateLimit.ResponseStatusCode,
			DryRun:             cfg.RateLimit.DryRun,
			MetricsCollector:   rateLimitMetrics,
		})
	}

	router := chi.NewRouter()
	applyDefaultMiddlewaresToRouter(router, cfg, logger)
	configureRouter(router, logger, routerOpts)

	httpServer := &http.Server{
		Addr:              cfg.Address,
		WriteTimeout:      time.Duration(cfg.Timeouts.Write),
		ReadTimeout:       time.Duration(cfg.Timeouts.Read),
		ReadHeaderTimeout: time.Duration(cfg.Timeouts.ReadHeader),
		IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
		Handler:           router,
	}
	serverURL := "http://" + cfg.Address
	if cfg.UnixSocketPath != "" {
		serverURL = "http://localhost" // Any domain can be used here. It will not be used in unix-socket case.
	}

	return &HTTPServer{
		URL:              serverURL,
		HTTPServer:       httpServer,
		UnixSocketPath:   cfg.UnixSocketPath,
		HTTPRouter:       router,
		Logger:           logger,
		ShutdownTimeout:  time.Duration(cfg.Timeouts.Shutdown),
		rateLimiter:      limiter,
		listener:         opts.Listener,
		rateLimitMetrics: rateLimitMetrics,
	}, nil
}

// Start starts application HTTP server in a blocking way.
// It's supposed that this method will be called in a separate goroutine.
// If a fatal error occurs, it will be sent to the fatalError channel.
func (s *HTTPServer) Start(fatalError chan<- error) {
	done := make(chan struct{})
	defer close(done)
	s.httpServerDone.Store(done)

	logger := s.Logger.With(
		log.String("address", s.HTTPServer.Addr),
		log.Duration("write_timeout", s.HTTPServer.WriteTimeout),
		log.Duration("read_timeout", s.HTTPServer.ReadTimeout),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)
	if rl, ok := s.RateLimit(); ok {
		logger = logger.With(log.String("rate_limit", rl.String()))
	}
	if s.UnixSocketPath != "" {
		logger = logger.With(log.String("unix_socket_path", s.UnixSocketPath))
		if err := os.Remove(s.UnixSocketPath); err != nil && !os.IsNotExist(err) {
			fatalError <- fmt.Errorf("remove unix socket file %q: %w", s.UnixSocketPath, err)
			return
		}
	}

	logger.Info("starting application HTTP server...")

	if s.listener == nil {
		network, addr := s.NetworkAndAddr()
		listener, err := net.Listen(network, addr)
		if err != nil {
			logger.Error("application HTTP server error", log.Error(err))
			fatalError <- err
			return
		}
		s.listener = listener
	}

	if s.listener.Addr().Network() == networkTCP {
		if err := s.storePort(); err != nil {
			logger.Error("unexpected format of TCP listener address", log.Error(err))
			fatalError <- err
			return
		}
	}

	if err := s.HTTPServer.Serve(s.listener); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("application HTTP server closed")
			return
		}
		logger.Error("application HTTP server error", log.Error(err))
		fatalError <- err
	}
}

func (s *HTTPServer) storePort() error {
	_, portStr, err := net.SplitHostPort(s.listener.Addr().String())
	if err != nil {
		return fmt.Errorf("split host and port: %w", err)
	}
	port, err := strconv.ParseInt(portStr, 10, 32)
	if err != nil {
		return fmt.Errorf("parse port: %w", err)
	}
	atomic.StoreInt32(&s.port, int32(port))
	return nil
}

// Stop stops application HTTP server (gracefully or not).
func (s *HTTPServer) Stop(gracefully bool) error {
	if !gracefully {
		s.Logger.Info("closing application HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("application HTTP server closing error", log.Error(err))
			return err
		}
		s.waitServeDone()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	s.Logger.Info("shutting down application HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.Error("application HTTP server shutting down error", log.Error(err))
		return err
	}
	s.Logger.Info("application HTTP server shut down")
	s.waitServeDone()
	return nil
}

func (s *HTTPServer) waitServeDone() {
	if done, ok := s.httpServerDone.Load().(chan struct{}); ok && done != nil {
		<-done
	}
}

// RateLimit returns the rate limit applied to API requests.
// The second return value is false if rate limiting is disabled.
func (s *HTTPServer) RateLimit() (ratelimit.RateLimit, bool) {
	if s.rateLimiter == nil {
		return ratelimit.RateLimit{}, false
	}
	return s.rateLimiter.Limit(), true
}

// MustRegisterMetrics registers rate limiting metrics in Prometheus client and panics if any error occurs.
func (s *HTTPServer) MustRegisterMetrics() {
	if s.rateLimitMetrics != nil {
		s.rateLimitMetrics.MustRegister()
	}
}

// UnregisterMetrics unregisters rate limiting metrics in Prometheus client.
func (s *HTTPServer) UnregisterMetrics() {
	if s.rateLimitMetrics != nil {
		s.rateLimitMetrics.Unregister()
	}
}

// NetworkAndAddr returns network type ("tcp" or "unix") and address (path to unix socket in case of "unix" network).
func (s *HTTPServer) NetworkAndAddr() (network string, addr string) {
	if s.UnixSocketPath != "" {
		return networkUnix, s.UnixSocketPath
	}
	return networkTCP, s.HTTPServer.Addr
}

// GetPort returns the TCP port the server listens on. It is 0 until the server is started.
func (s *HTTPServer) GetPort() int {
	return int(atomic.LoadInt32(&s.port))
}
