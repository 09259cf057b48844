// Package delivery defines the inbound transports of the service.
package delivery

import "context"

// Delivery is a serving surface (HTTP server, worker endpoint) whose
// lifecycle is owned by the application container.
type Delivery interface {
	// Serve blocks until the server stops or ctx is cancelled.
	Serve(ctx context.Context) error
}
