// Package delivery holds the inbound adapters of the process.
package delivery

import "context"

// Delivery is a server started by the process entrypoint.
type Delivery interface {
	Serve(ctx context.Context) error
}
