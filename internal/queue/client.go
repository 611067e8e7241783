package queue

import "context"

// Client enqueues analysis jobs for out-of-process execution. Implementations
// must be safe for concurrent use by HTTP handlers.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
