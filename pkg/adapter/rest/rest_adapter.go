package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/ratelimiter"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// RESTAdapter implements adapter.Adapter for the JSON HTTP API.
//
// Every route except /healthz lives under /api/v1 and requires the
// X-User-ID header to name a registered user. Permissions are enforced
// here, at the edge; the drive service itself is identity-agnostic.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. http.Server.Shutdown stops accepting connections
//  3. In-flight requests drain until the shutdown deadline
//
// Thread safety:
// All methods are safe for concurrent use. Stop is idempotent.
type RESTAdapter struct {
	config  RESTConfig
	drive   *drive.Drive
	metrics metrics.HTTPMetrics
	limiter *ratelimiter.RateLimiter
	engine  *gin.Engine

	mu           sync.Mutex
	server       *http.Server
	shutdownOnce sync.Once
	shutdown     chan struct{}
	stopErr      error
}

// RESTConfig holds the HTTP API configuration.
//
// Default values (applied by New if zero):
//   - Port: 8080
//   - ReadTimeout: 30s
//   - WriteTimeout: 30s
//   - IdleTimeout: 2m
//   - ShutdownTimeout: 30s
type RESTConfig struct {
	// Enabled controls whether the API is served.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the TCP port to listen on.
	Port int `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`

	// ReadTimeout bounds reading a request, body included. Uploads must
	// fit in it.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`

	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout is how long in-flight requests may drain on shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig throttles each caller (user id, or client address for
// anonymous requests). RequestsPerSecond = 0 disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             uint `mapstructure:"burst" yaml:"burst"`
}

func (c *RESTConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

func (c *RESTConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return errors.New("timeouts must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// New creates a REST adapter. Call SetDrive before Serve.
//
// Panics if config validation fails.
func New(config RESTConfig, httpMetrics metrics.HTTPMetrics) *RESTAdapter {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid REST config: %v", err))
	}

	if httpMetrics == nil {
		httpMetrics = noopHTTPMetrics{}
	}

	a := &RESTAdapter{
		config:   config,
		metrics:  httpMetrics,
		limiter:  ratelimiter.New(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst),
		shutdown: make(chan struct{}),
	}
	a.engine = a.routes()

	if a.limiter.Enabled() {
		logger.Debug("REST rate limit: %d req/s, burst %d", config.RateLimit.RequestsPerSecond, config.RateLimit.Burst)
	}
	return a
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(string, string, int, time.Duration) {}
func (noopHTTPMetrics) RecordRateLimited()                              {}

// SetDrive injects the shared drive service.
func (a *RESTAdapter) SetDrive(d *drive.Drive) {
	a.drive = d
	logger.Debug("REST drive configured")
}

// Handler exposes the router, mainly for tests.
func (a *RESTAdapter) Handler() http.Handler {
	return a.engine
}

// Serve listens on the configured port and blocks until ctx is cancelled,
// Stop is called, or the listener fails.
func (a *RESTAdapter) Serve(ctx context.Context) error {
	if a.drive == nil {
		return errors.New("drive not configured: call SetDrive before Serve")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", a.config.Port, err)
	}

	srv := &http.Server{
		Handler:      a.engine,
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
		IdleTimeout:  a.config.IdleTimeout,
	}

	a.mu.Lock()
	select {
	case <-a.shutdown:
		a.mu.Unlock()
		_ = ln.Close()
		return nil
	default:
	}
	a.server = srv
	a.mu.Unlock()

	logger.Info("REST API listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()
		if err := a.Stop(stopCtx); err != nil {
			logger.Warn("REST shutdown incomplete: %v", err)
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("REST server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Calls after the first return the
// first call's result.
func (a *RESTAdapter) Stop(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		close(a.shutdown)
		srv := a.server
		a.mu.Unlock()

		if srv == nil {
			return
		}
		logger.Info("REST API shutting down")
		if err := srv.Shutdown(ctx); err != nil {
			a.stopErr = err
			_ = srv.Close()
		}
	})
	return a.stopErr
}

func (a *RESTAdapter) Protocol() string { return "REST" }

func (a *RESTAdapter) Port() int { return a.config.Port }
