package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"github.com/samirrijal/topomap/internal/core/domain"
)

const snapshotKeyPrefix = "topomap:snapshot:"

// ByteStore is the key/value surface SnapshotCache needs. *Cache implements it.
type ByteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// SnapshotCache implements ports.SnapshotCache. Snapshots are stored as
// snappy-compressed JSON; node lists make them large.
type SnapshotCache struct {
	store ByteStore
}

// NewSnapshotCache wraps a byte store.
func NewSnapshotCache(store ByteStore) *SnapshotCache {
	return &SnapshotCache{store: store}
}

// SnapshotKey returns the cache key of a session snapshot.
func SnapshotKey(sessionID string) string {
	return snapshotKeyPrefix + sessionID
}

// Get loads the cached snapshot of a session.
func (s *SnapshotCache) Get(ctx context.Context, sessionID string) (*domain.ViewportSnapshot, error) {
	raw, err := s.store.Get(ctx, SnapshotKey(sessionID))
	if err != nil {
		return nil, err
	}
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	var snap domain.ViewportSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Set stores snap under its session id.
func (s *SnapshotCache) Set(ctx context.Context, snap *domain.ViewportSnapshot, ttlSeconds int) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, SnapshotKey(snap.SessionID), snappy.Encode(nil, data), ttlSeconds)
}

// Delete drops the cached snapshot of a session.
func (s *SnapshotCache) Delete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, SnapshotKey(sessionID))
}
