package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/adapter"
	"github.com/marmos91/dittodrive/pkg/drive"
)

// DefaultShutdownTimeout bounds the graceful shutdown of all adapters.
const DefaultShutdownTimeout = 30 * time.Second

// BackgroundService is a component started alongside the adapters and
// stopped after them, such as the content garbage collector.
type BackgroundService interface {
	Start()
	Stop(ctx context.Context) error
}

// DriveServer manages the lifecycle of the adapters that expose a shared
// drive service, plus background services.
//
// Lifecycle:
//  1. Creation: New() with the drive service
//  2. Registration: AddAdapter() and AddService()
//  3. Startup: Serve() starts services, then all adapters concurrently
//  4. Shutdown: context cancellation or an adapter failure stops adapters
//     in reverse registration order, then services
//
// Example usage:
//
//	srv := server.New(d, cfg.Server.ShutdownTimeout)
//	srv.AddAdapter(rest.New(cfg.API, httpMetrics))
//	srv.AddService(collector)
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
type DriveServer struct {
	drive           *drive.Drive
	shutdownTimeout time.Duration

	mu       sync.Mutex
	adapters []adapter.Adapter
	services []BackgroundService
	served   bool
}

// New creates a server for d. A zero shutdownTimeout selects
// DefaultShutdownTimeout.
//
// Panics if d is nil (programmer error).
func New(d *drive.Drive, shutdownTimeout time.Duration) *DriveServer {
	if d == nil {
		panic("drive cannot be nil")
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &DriveServer{drive: d, shutdownTimeout: shutdownTimeout}
}

// AddAdapter injects the drive into a and registers it. Duplicate
// protocols and port clashes are rejected.
func (s *DriveServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		return errors.New("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		return errors.New("cannot add adapter after Serve() has been called")
	}

	for _, existing := range s.adapters {
		if existing.Protocol() == a.Protocol() {
			return fmt.Errorf("adapter for protocol %s already registered", a.Protocol())
		}
		if existing.Port() == a.Port() {
			return fmt.Errorf("port %d already in use by %s adapter", a.Port(), existing.Protocol())
		}
	}

	a.SetDrive(s.drive)
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", a.Protocol(), a.Port())
	return nil
}

// AddService registers a background service.
func (s *DriveServer) AddService(svc BackgroundService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, svc)
}

// Adapters returns a snapshot of the registered adapters.
func (s *DriveServer) Adapters() []adapter.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]adapter.Adapter, len(s.adapters))
	copy(out, s.adapters)
	return out
}

// Serve runs every adapter until ctx is cancelled or one of them fails.
//
// Returns ctx.Err() after a signal-driven shutdown, or the first adapter
// error wrapped with its protocol name. Serve may only be called once.
func (s *DriveServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		return errors.New("Serve() has already been called on this server instance")
	}
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return errors.New("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := append([]adapter.Adapter(nil), s.adapters...)
	services := append([]BackgroundService(nil), s.services...)
	s.mu.Unlock()

	for _, svc := range services {
		svc.Start()
	}

	logger.Info("Starting DriveServer with %d adapter(s)", len(adapters))

	errChan := make(chan adapterError, len(adapters))
	var wg sync.WaitGroup

	for _, a := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			if err := a.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
				logger.Error("%s adapter failed: %v", a.Protocol(), err)
				errChan <- adapterError{protocol: a.Protocol(), err: err}
				return
			}
			logger.Debug("%s adapter stopped", a.Protocol())
		}(a)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		shutdownErr = ctx.Err()
	case ae := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters", ae.protocol, ae.err)
		shutdownErr = fmt.Errorf("%s adapter error: %w", ae.protocol, ae.err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.stopAdapters(stopCtx, adapters)
	wg.Wait()

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(stopCtx); err != nil {
			logger.Warn("Error stopping background service: %v", err)
		}
	}

	logger.Info("DriveServer stopped")
	return shutdownErr
}

type adapterError struct {
	protocol string
	err      error
}

// stopAdapters signals every adapter in reverse registration order.
func (s *DriveServer) stopAdapters(ctx context.Context, adapters []adapter.Adapter) {
	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		a := adapters[i]
		if err := a.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", a.Protocol(), err)
		}
	}
}
