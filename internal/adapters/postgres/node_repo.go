package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/topomap/internal/core/domain"
)

const upsertNodeSQL = `
	INSERT INTO topology_nodes (node_id, label, location, attributes, created_at)
	VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6)
	ON CONFLICT (node_id) DO UPDATE
	SET label = EXCLUDED.label, location = EXCLUDED.location,
	    attributes = EXCLUDED.attributes
`

const selectNodeColumns = `
	SELECT node_id, label,
	       ST_Y(location::geometry) as lat,
	       ST_X(location::geometry) as lng,
	       COALESCE(attributes, '{}'), created_at
	FROM topology_nodes
`

// NodeRepo implements ports.NodeRepository with pgx.
type NodeRepo struct {
	db *DB
}

// NewNodeRepo creates a new NodeRepo.
func NewNodeRepo(db *DB) *NodeRepo {
	return &NodeRepo{db: db}
}

// Upsert inserts or updates a single node.
func (r *NodeRepo) Upsert(ctx context.Context, n *domain.TopologyNode) error {
	_, err := r.db.Pool.Exec(ctx, upsertNodeSQL,
		n.ID, n.Label, n.Location.Lng, n.Location.Lat, attributes(n.Attributes), n.CreatedAt)
	return err
}

// UpsertBatch inserts many nodes using pgx.Batch.
func (r *NodeRepo) UpsertBatch(ctx context.Context, nodes []domain.TopologyNode) error {
	batch := &pgx.Batch{}
	for _, n := range nodes {
		batch.Queue(upsertNodeSQL,
			n.ID, n.Label, n.Location.Lng, n.Location.Lat, attributes(n.Attributes), n.CreatedAt)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range nodes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a node by its id.
func (r *NodeRepo) GetByID(ctx context.Context, id string) (*domain.TopologyNode, error) {
	row := r.db.Pool.QueryRow(ctx, selectNodeColumns+` WHERE node_id = $1`, id)
	n, err := scanNode(row)
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

// List returns up to limit nodes ordered by id.
func (r *NodeRepo) List(ctx context.Context, limit int) ([]domain.TopologyNode, error) {
	rows, err := r.db.Pool.Query(ctx, selectNodeColumns+` ORDER BY node_id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

// FindInBounds returns nodes inside the bounding box using the GiST index.
func (r *NodeRepo) FindInBounds(ctx context.Context, b domain.GeoBounds, limit int) ([]domain.TopologyNode, error) {
	rows, err := r.db.Pool.Query(ctx, selectNodeColumns+`
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography
		ORDER BY node_id
		LIMIT $5
	`, b.SouthWest.Lng, b.SouthWest.Lat, b.NorthEast.Lng, b.NorthEast.Lat, limit)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

func scanNode(row pgx.Row) (*domain.TopologyNode, error) {
	var n domain.TopologyNode
	if err := row.Scan(
		&n.ID, &n.Label,
		&n.Location.Lat, &n.Location.Lng,
		&n.Attributes, &n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func collectNodes(rows pgx.Rows) ([]domain.TopologyNode, error) {
	defer rows.Close()

	var nodes []domain.TopologyNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

func attributes(a map[string]any) map[string]any {
	if a == nil {
		return map[string]any{}
	}
	return a
}
