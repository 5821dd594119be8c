package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
)

// ErrInvalidNode is returned for nodes that cannot be placed on the map.
var ErrInvalidNode = errors.New("invalid node")

const (
	defaultNodeLimit = 500
	maxNodeLimit     = 5000
)

// NodeService handles topology node storage.
type NodeService struct {
	nodes ports.NodeRepository
}

// NewNodeService creates a new NodeService.
func NewNodeService(nodes ports.NodeRepository) *NodeService {
	return &NodeService{nodes: nodes}
}

// Import validates and stores nodes. Latitudes beyond the Web Mercator limit
// are clamped so every stored node can be projected.
func (s *NodeService) Import(ctx context.Context, nodes []domain.TopologyNode) (int, error) {
	if len(nodes) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	clean := make([]domain.TopologyNode, 0, len(nodes))
	for i, n := range nodes {
		if err := validateNode(n); err != nil {
			return 0, fmt.Errorf("node %d: %w", i, err)
		}
		n.Location = n.Location.Clamped()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		clean = append(clean, n)
	}
	if err := s.nodes.UpsertBatch(ctx, clean); err != nil {
		return 0, fmt.Errorf("upsert nodes: %w", err)
	}
	return len(clean), nil
}

// GetByID returns a single node, or domain.ErrNotFound.
func (s *NodeService) GetByID(ctx context.Context, id string) (*domain.TopologyNode, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, domain.ErrNotFound
	}
	return node, nil
}

// List returns stored nodes.
func (s *NodeService) List(ctx context.Context, limit int) ([]domain.TopologyNode, error) {
	return s.nodes.List(ctx, clampLimit(limit))
}

// InBounds returns the nodes inside b.
func (s *NodeService) InBounds(ctx context.Context, b domain.GeoBounds, limit int) ([]domain.TopologyNode, error) {
	if b.IsEmpty() {
		return nil, fmt.Errorf("%w: bounds have no area", ErrInvalidView)
	}
	return s.nodes.FindInBounds(ctx, b, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultNodeLimit
	}
	if limit > maxNodeLimit {
		return maxNodeLimit
	}
	return limit
}

func validateNode(n domain.TopologyNode) error {
	if n.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidNode)
	}
	p := n.Location
	if !finitePoint(p) || math.Abs(p.Lat) > 90 || math.Abs(p.Lng) > 180 {
		return fmt.Errorf("%w: location %g,%g out of range", ErrInvalidNode, p.Lat, p.Lng)
	}
	return nil
}
