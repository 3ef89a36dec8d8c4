package health

import "context"

// Pinger checks a single component's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}
