package http

import (
	"context"

	"github.com/samirrijal/topomap/internal/core/usecases"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ViewportFeed delivers published viewport events to the WebSocket relay.
// natsadapter.Subscriber implements it.
type ViewportFeed interface {
	SubscribeViewport(sessionID string, fn func(data []byte)) (func(), error)
	SubscribeClosed(fn func(data []byte)) (func(), error)
	Connected() bool
}

// Dependencies holds all services needed by HTTP handlers. Everything except
// Sessions may be nil.
type Dependencies struct {
	Sessions *usecases.SessionService
	Nodes    *usecases.NodeService
	Feed     ViewportFeed
	DB       Pinger
	Cache    Pinger
}
