// Package broadcast is the port for pushing live pipeline events, such as
// dispatch state changes and publication decisions, to watching clients.
package broadcast

import "context"

// Broadcaster fans an event out to subscribed clients. Delivery is best
// effort and never blocks the pipeline.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
