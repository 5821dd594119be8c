package ports

import (
	"context"

	"github.com/samirrijal/topomap/internal/core/domain"
)

// EventPublisher publishes viewport events to a message broker.
type EventPublisher interface {
	PublishViewport(ctx context.Context, snap *domain.ViewportSnapshot) error
	PublishSessionClosed(ctx context.Context, sessionID string) error
}

// SnapshotCache keeps the latest snapshot per session.
type SnapshotCache interface {
	Get(ctx context.Context, sessionID string) (*domain.ViewportSnapshot, error)
	Set(ctx context.Context, snap *domain.ViewportSnapshot, ttlSeconds int) error
	Delete(ctx context.Context, sessionID string) error
}
