package ports

import (
	"context"

	"github.com/samirrijal/topomap/internal/core/domain"
)

// NodeRepository persists topology nodes.
type NodeRepository interface {
	Upsert(ctx context.Context, node *domain.TopologyNode) error
	UpsertBatch(ctx context.Context, nodes []domain.TopologyNode) error
	GetByID(ctx context.Context, id string) (*domain.TopologyNode, error)
	List(ctx context.Context, limit int) ([]domain.TopologyNode, error)
	FindInBounds(ctx context.Context, b domain.GeoBounds, limit int) ([]domain.TopologyNode, error)
}
