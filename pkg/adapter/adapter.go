package adapter

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/drive"
)

// Adapter is a client-facing frontend served by DriveServer, such as the
// REST API.
//
// All adapters share one drive service, so a change made through one
// adapter is immediately visible through every other.
//
// Lifecycle:
//  1. Creation: the adapter is built from its own configuration
//  2. Injection: SetDrive provides the shared drive service
//  3. Startup: Serve listens and blocks until shutdown
//  4. Shutdown: Stop initiates graceful shutdown within the context deadline
//
// Thread safety:
// SetDrive is called once before Serve. Stop may be called concurrently
// with Serve and more than once.
type Adapter interface {
	// Serve starts the adapter and blocks until ctx is cancelled or an
	// unrecoverable error occurs. It returns nil or context.Canceled on a
	// graceful shutdown.
	//
	// If Serve returns before ctx is cancelled, DriveServer treats it as
	// fatal and stops every other adapter.
	Serve(ctx context.Context) error

	// SetDrive injects the shared drive service.
	SetDrive(d *drive.Drive)

	// Stop initiates graceful shutdown. Implementations must be idempotent
	// and honor the ctx deadline.
	Stop(ctx context.Context) error

	// Protocol returns a constant human-readable name ("REST").
	Protocol() string

	// Port returns the configured listen port.
	Port() int
}
