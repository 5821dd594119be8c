package usecases_test

import (
	"context"
	"errors"

	"github.com/samirrijal/topomap/internal/core/domain"
)

var errUnavailable = errors.New("unavailable")

// --- Mock NodeRepository ---

type mockNodeRepo struct {
	upsertBatchFn  func(ctx context.Context, nodes []domain.TopologyNode) error
	getByIDFn      func(ctx context.Context, id string) (*domain.TopologyNode, error)
	listFn         func(ctx context.Context, limit int) ([]domain.TopologyNode, error)
	findInBoundsFn func(ctx context.Context, b domain.GeoBounds, limit int) ([]domain.TopologyNode, error)
}

func (m *mockNodeRepo) Upsert(ctx context.Context, node *domain.TopologyNode) error { return nil }

func (m *mockNodeRepo) UpsertBatch(ctx context.Context, nodes []domain.TopologyNode) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, nodes)
	}
	return nil
}

func (m *mockNodeRepo) GetByID(ctx context.Context, id string) (*domain.TopologyNode, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockNodeRepo) List(ctx context.Context, limit int) ([]domain.TopologyNode, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockNodeRepo) FindInBounds(ctx context.Context, b domain.GeoBounds, limit int) ([]domain.TopologyNode, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, b, limit)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	err      error
	viewport []*domain.ViewportSnapshot
	closed   []string
}

func (m *mockPublisher) PublishViewport(ctx context.Context, snap *domain.ViewportSnapshot) error {
	m.viewport = append(m.viewport, snap)
	return m.err
}

func (m *mockPublisher) PublishSessionClosed(ctx context.Context, sessionID string) error {
	m.closed = append(m.closed, sessionID)
	return m.err
}

// --- Mock SnapshotCache ---

type mockSnapshotCache struct {
	getFn   func(ctx context.Context, id string) (*domain.ViewportSnapshot, error)
	setErr  error
	stored  map[string]*domain.ViewportSnapshot
	ttls    []int
	deleted []string
}

func newMockSnapshotCache() *mockSnapshotCache {
	return &mockSnapshotCache{stored: make(map[string]*domain.ViewportSnapshot)}
}

func (m *mockSnapshotCache) Get(ctx context.Context, id string) (*domain.ViewportSnapshot, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errUnavailable
}

func (m *mockSnapshotCache) Set(ctx context.Context, snap *domain.ViewportSnapshot, ttl int) error {
	m.stored[snap.SessionID] = snap
	m.ttls = append(m.ttls, ttl)
	return m.setErr
}

func (m *mockSnapshotCache) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.stored, id)
	return nil
}
