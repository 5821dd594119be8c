package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/topomap/internal/adapters/headless"
	handler "github.com/samirrijal/topomap/internal/adapters/http"
	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
	"github.com/samirrijal/topomap/internal/core/usecases"
)

// ---- Mocks ----

type memNodeRepo struct {
	mu    sync.Mutex
	nodes map[string]domain.TopologyNode
	err   error
}

func newMemNodeRepo(nodes ...domain.TopologyNode) *memNodeRepo {
	r := &memNodeRepo{nodes: make(map[string]domain.TopologyNode)}
	for _, n := range nodes {
		r.nodes[n.ID] = n
	}
	return r
}

func (r *memNodeRepo) Upsert(ctx context.Context, n *domain.TopologyNode) error {
	return r.UpsertBatch(ctx, []domain.TopologyNode{*n})
}

func (r *memNodeRepo) UpsertBatch(ctx context.Context, nodes []domain.TopologyNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, n := range nodes {
		r.nodes[n.ID] = n
	}
	return nil
}

func (r *memNodeRepo) GetByID(ctx context.Context, id string) (*domain.TopologyNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r *memNodeRepo) List(ctx context.Context, limit int) ([]domain.TopologyNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.TopologyNode, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNodeRepo) FindInBounds(ctx context.Context, b domain.GeoBounds, limit int) ([]domain.TopologyNode, error) {
	all, err := r.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	var out []domain.TopologyNode
	for _, n := range all {
		if n.Location.Lat >= b.SouthWest.Lat && n.Location.Lat <= b.NorthEast.Lat &&
			n.Location.Lng >= b.SouthWest.Lng && n.Location.Lng <= b.NorthEast.Lng {
			out = append(out, n)
		}
	}
	return out, nil
}

var _ ports.NodeRepository = (*memNodeRepo)(nil)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeFeed struct{ connected bool }

func (f fakeFeed) SubscribeViewport(string, func([]byte)) (func(), error) { return func() {}, nil }
func (f fakeFeed) SubscribeClosed(func([]byte)) (func(), error)           { return func() {}, nil }
func (f fakeFeed) Connected() bool                                        { return f.connected }

// ---- Test helpers ----

var javaNodes = []domain.TopologyNode{
	{ID: "sto-jkt", Label: "STO Gambir", Location: domain.GeoPoint{Lat: -6.17, Lng: 106.82}},
	{ID: "sto-bdg", Label: "STO Lembong", Location: domain.GeoPoint{Lat: -6.91, Lng: 107.61}},
	{ID: "sto-sby", Label: "STO Kebalen", Location: domain.GeoPoint{Lat: -7.25, Lng: 112.75}},
}

func setupApp(t *testing.T, opts ...func(*handler.Dependencies, *usecases.SessionConfig)) (*fiber.App, *handler.Dependencies) {
	t.Helper()
	repo := newMemNodeRepo(javaNodes...)
	center := domain.GeoPoint{Lat: -6.2, Lng: 106.816666}
	cfg := usecases.SessionConfig{
		Map: ports.MapOptions{Center: &center, Zoom: 5, MaxZoom: 22},
	}
	deps := &handler.Dependencies{Nodes: usecases.NewNodeService(repo)}
	for _, o := range opts {
		o(deps, &cfg)
	}
	deps.Sessions = usecases.NewSessionService(headless.Engines(), repo, nil, nil, cfg)
	t.Cleanup(func() { deps.Sessions.CloseAll(context.Background()) })

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps, handler.RouterConfig{RateLimit: 10000})
	return app, deps
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func createSession(t *testing.T, app *fiber.App, body any) domain.ViewportSnapshot {
	t.Helper()
	status, data := do(t, app, "POST", "/v1/sessions", body)
	require.Equal(t, 201, status, string(data))
	var snap domain.ViewportSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func apiCode(t *testing.T, data []byte) string {
	t.Helper()
	var e handler.APIError
	require.NoError(t, json.Unmarshal(data, &e))
	return e.Code
}

// ---- Session handler tests ----

func TestCreateSession_LoadsStoredNodes(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(`{"width":800,"height":600}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var snap domain.ViewportSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "/v1/sessions/"+snap.SessionID, resp.Header.Get("Location"))
	assert.Equal(t, "bound", snap.State)
	assert.Len(t, snap.Nodes, 3)
	for _, n := range snap.Nodes {
		assert.True(t, n.Visible, "node %s should be framed", n.ID)
	}
}

func TestCreateSession_InlineNodesAndCenter(t *testing.T) {
	app, _ := setupApp(t)
	snap := createSession(t, app, map[string]any{
		"width":  640,
		"height": 480,
		"center": map[string]float64{"lat": -6.9, "lng": 107.6},
		"zoom":   10,
		"nodes":  javaNodes[1:2],
	})
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "sto-bdg", snap.Nodes[0].ID)
	assert.InDelta(t, 10, snap.Map.Zoom, 1e-6)
	assert.InDelta(t, -6.9, snap.Map.Center.Lat, 1e-6)
}

func TestCreateSession_Errors(t *testing.T) {
	app, _ := setupApp(t, func(_ *handler.Dependencies, cfg *usecases.SessionConfig) {
		cfg.MaxSessions = 1
	})

	status, data := do(t, app, "POST", "/v1/sessions", map[string]any{"width": 0, "height": 600})
	assert.Equal(t, 400, status)
	assert.Equal(t, "bad_request", apiCode(t, data))

	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	createSession(t, app, map[string]any{"width": 800, "height": 600})
	status, data = do(t, app, "POST", "/v1/sessions", map[string]any{"width": 800, "height": 600})
	assert.Equal(t, 429, status)
	assert.Equal(t, "too_many_sessions", apiCode(t, data))
}

func TestGetSession(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})

	status, data := do(t, app, "GET", "/v1/sessions/"+created.SessionID, nil)
	require.Equal(t, 200, status)
	var snap domain.ViewportSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, created.Camera, snap.Camera)
	assert.Len(t, snap.Nodes, 3)

	status, data = do(t, app, "GET", "/v1/sessions/"+created.SessionID+"?nodes=false", nil)
	require.Equal(t, 200, status)
	assert.NotContains(t, string(data), `"nodes"`)

	status, data = do(t, app, "GET", "/v1/sessions/unknown", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "not_found", apiCode(t, data))
}

func TestListAndDeleteSessions(t *testing.T) {
	app, _ := setupApp(t)
	a := createSession(t, app, map[string]any{"width": 800, "height": 600})
	createSession(t, app, map[string]any{"width": 400, "height": 400})

	status, data := do(t, app, "GET", "/v1/sessions", nil)
	require.Equal(t, 200, status)
	var list struct {
		Sessions []string `json:"sessions"`
		Count    int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 2, list.Count)
	assert.Contains(t, list.Sessions, a.SessionID)

	status, _ = do(t, app, "DELETE", "/v1/sessions/"+a.SessionID, nil)
	assert.Equal(t, 204, status)
	status, _ = do(t, app, "DELETE", "/v1/sessions/"+a.SessionID, nil)
	assert.Equal(t, 404, status)
}

func TestMoveMap(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})
	path := "/v1/sessions/" + created.SessionID + "/map"

	status, data := do(t, app, "PUT", path, map[string]any{
		"center": map[string]float64{"lat": -7.25, "lng": 112.75},
		"zoom":   11,
	})
	require.Equal(t, 200, status, string(data))
	var snap domain.ViewportSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.InDelta(t, 11, snap.Map.Zoom, 1e-6)
	assert.NotEqual(t, created.Camera, snap.Camera)
	for _, n := range snap.Nodes {
		assert.Equal(t, n.ID == "sto-sby", n.Visible, "visibility of %s", n.ID)
	}

	status, _ = do(t, app, "PUT", path, map[string]any{"center": map[string]float64{"lat": 0, "lng": 0}})
	assert.Equal(t, 400, status)

	status, _ = do(t, app, "PUT", "/v1/sessions/missing/map", map[string]any{
		"center": map[string]float64{"lat": 0, "lng": 0},
		"zoom":   3,
	})
	assert.Equal(t, 404, status)
}

func TestFitBounds(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})
	path := "/v1/sessions/" + created.SessionID + "/bounds"

	status, data := do(t, app, "PUT", path, domain.GeoBounds{
		SouthWest: domain.GeoPoint{Lat: -7.0, Lng: 107.4},
		NorthEast: domain.GeoPoint{Lat: -6.8, Lng: 107.8},
	})
	require.Equal(t, 200, status, string(data))
	var snap domain.ViewportSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.True(t, snap.Map.Bounds.Orb().Contains(domain.GeoPoint{Lat: -6.91, Lng: 107.61}.Orb()))

	status, data = do(t, app, "PUT", path, domain.GeoBounds{
		SouthWest: domain.GeoPoint{Lat: 1, Lng: 1},
		NorthEast: domain.GeoPoint{Lat: 1, Lng: 1},
	})
	assert.Equal(t, 400, status)
	assert.Equal(t, "bad_request", apiCode(t, data))
}

func TestSetCamera(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})
	path := "/v1/sessions/" + created.SessionID + "/camera"

	status, data := do(t, app, "PUT", path, map[string]any{"x": 0.4, "y": 0.55, "ratio": 0.5, "steps": 4})
	require.Equal(t, 200, status, string(data))
	var snap domain.ViewportSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.InDelta(t, 0.4, snap.Camera.X, 1e-6)
	assert.InDelta(t, 0.55, snap.Camera.Y, 1e-6)
	assert.InDelta(t, 0.5, snap.Camera.Ratio, 1e-6)
	assert.Greater(t, snap.Map.Zoom, created.Map.Zoom)

	status, _ = do(t, app, "PUT", path, map[string]any{"x": 0.5, "y": 0.5, "ratio": 0})
	assert.Equal(t, 400, status)
	status, _ = do(t, app, "PUT", path, map[string]any{"x": 0.5, "y": 0.5, "ratio": 1, "steps": -2})
	assert.Equal(t, 400, status)
}

func TestResize(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})
	path := "/v1/sessions/" + created.SessionID + "/size"

	status, data := do(t, app, "PUT", path, map[string]any{"width": 1024, "height": 300})
	require.Equal(t, 200, status, string(data))
	var snap domain.ViewportSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, domain.Dimensions{Width: 1024, Height: 300}, snap.Dimensions)
	assert.InDelta(t, created.Map.Center.Lat, snap.Map.Center.Lat, 1e-9)
	assert.InDelta(t, created.Map.Center.Lng, snap.Map.Center.Lng, 1e-9)
	assert.InDelta(t, created.Map.Zoom, snap.Map.Zoom, 1e-9)

	status, _ = do(t, app, "PUT", path, map[string]any{"width": -1, "height": 300})
	assert.Equal(t, 400, status)
}

// ---- Node handler tests ----

func TestImportNodes(t *testing.T) {
	app, _ := setupApp(t)

	status, data := do(t, app, "POST", "/v1/nodes", map[string]any{
		"nodes": []domain.TopologyNode{
			{ID: "sto-mdn", Label: "STO Medan", Location: domain.GeoPoint{Lat: 3.59, Lng: 98.67}},
		},
	})
	require.Equal(t, 201, status, string(data))
	assert.JSONEq(t, `{"imported":1}`, string(data))

	status, data = do(t, app, "GET", "/v1/nodes/sto-mdn", nil)
	require.Equal(t, 200, status)
	var node domain.TopologyNode
	require.NoError(t, json.Unmarshal(data, &node))
	assert.Equal(t, "STO Medan", node.Label)

	status, data = do(t, app, "POST", "/v1/nodes", map[string]any{
		"nodes": []domain.TopologyNode{{ID: "", Location: domain.GeoPoint{Lat: 1, Lng: 1}}},
	})
	assert.Equal(t, 400, status)
	assert.Equal(t, "bad_request", apiCode(t, data))

	status, _ = do(t, app, "POST", "/v1/nodes", map[string]any{"nodes": []domain.TopologyNode{}})
	assert.Equal(t, 400, status)
}

func TestListNodes_Pagination(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/nodes?offset=1&limit=1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result struct {
		Data       []domain.TopologyNode `json:"data"`
		Pagination handler.Pagination    `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, handler.Pagination{Offset: 1, Limit: 1, Total: 3}, result.Pagination)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "sto-jkt", result.Data[0].ID)

	link := resp.Header.Get("Link")
	assert.Contains(t, link, `rel="prev"`)
	assert.Contains(t, link, `</v1/nodes?offset=2&limit=1>; rel="next"`)

	status, data := do(t, app, "GET", "/v1/nodes?offset=10", nil)
	require.Equal(t, 200, status)
	assert.Contains(t, string(data), `"data":[]`)
}

func TestGetNode_NotFound(t *testing.T) {
	app, _ := setupApp(t)
	status, data := do(t, app, "GET", "/v1/nodes/ghost", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "not_found", apiCode(t, data))
}

func TestNodesInBounds(t *testing.T) {
	app, _ := setupApp(t)

	status, data := do(t, app, "GET", "/v1/nodes/in-bounds?south=-7&west=106&north=-6&east=108", nil)
	require.Equal(t, 200, status)
	var nodes []domain.TopologyNode
	require.NoError(t, json.Unmarshal(data, &nodes))
	assert.Len(t, nodes, 2)

	status, _ = do(t, app, "GET", "/v1/nodes/in-bounds?south=-7&west=106", nil)
	assert.Equal(t, 400, status)

	status, _ = do(t, app, "GET", "/v1/nodes/in-bounds?south=-6&west=106&north=-7&east=108", nil)
	assert.Equal(t, 400, status)
}

func TestNodes_Unconfigured(t *testing.T) {
	app, _ := setupApp(t, func(d *handler.Dependencies, _ *usecases.SessionConfig) {
		d.Nodes = nil
	})
	status, data := do(t, app, "GET", "/v1/nodes", nil)
	assert.Equal(t, 503, status)
	assert.Equal(t, "unavailable", apiCode(t, data))
}

func TestListNodes_RepoError(t *testing.T) {
	repo := newMemNodeRepo()
	repo.err = errors.New("connection refused")
	app, _ := setupApp(t, func(d *handler.Dependencies, _ *usecases.SessionConfig) {
		d.Nodes = usecases.NewNodeService(repo)
	})
	status, data := do(t, app, "GET", "/v1/nodes", nil)
	assert.Equal(t, 500, status)
	assert.NotContains(t, string(data), "connection refused")
}

// ---- Middleware ----

func TestETag_NotModified(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/nodes", nil), -1)
	require.NoError(t, err)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(etag, `W/"`))

	req := httptest.NewRequest("GET", "/v1/nodes", nil)
	req.Header.Set("If-None-Match", `"other", `+etag)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 304, resp.StatusCode)
}

func TestCacheControl(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})

	tests := []struct {
		path string
		want string
	}{
		{"/v1/sessions/" + created.SessionID, "no-store"},
		{"/v1/nodes", "public, max-age=300"},
		{"/v1/nodes/in-bounds?south=-7&west=106&north=-6&east=108", "public, max-age=60"},
		{"/v1/health", "public, max-age=10"},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.Header.Get("Cache-Control"), tt.path)
	}
}

func TestRequestID_InErrors(t *testing.T) {
	app, _ := setupApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/sessions/nope", nil), -1)
	require.NoError(t, err)

	var e handler.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.NotEmpty(t, e.RequestID)
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), e.RequestID)
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app, _ := setupApp(t)
	createSession(t, app, map[string]any{"width": 800, "height": 600})

	status, data := do(t, app, "GET", "/v1/health", nil)
	require.Equal(t, 200, status)
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 1, body.Sessions)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		db     handler.Pinger
		cache  handler.Pinger
		feed   handler.ViewportFeed
		status int
		checks map[string]string
	}{
		{
			name:   "no database",
			status: 503,
			checks: map[string]string{"database": "not configured", "nats": "not configured", "cache": "not configured"},
		},
		{
			name:   "all up",
			db:     fakePinger{},
			cache:  fakePinger{},
			feed:   fakeFeed{connected: true},
			status: 200,
			checks: map[string]string{"database": "ok", "nats": "ok", "cache": "ok"},
		},
		{
			name:   "cache and nats down are not fatal",
			db:     fakePinger{},
			cache:  fakePinger{err: errors.New("refused")},
			feed:   fakeFeed{},
			status: 200,
			checks: map[string]string{"database": "ok", "nats": "disconnected", "cache": "error: refused"},
		},
		{
			name:   "database down",
			db:     fakePinger{err: errors.New("timeout")},
			status: 503,
			checks: map[string]string{"database": "error: timeout", "nats": "not configured", "cache": "not configured"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupApp(t, func(d *handler.Dependencies, _ *usecases.SessionConfig) {
				d.DB = tt.db
				d.Cache = tt.cache
				d.Feed = tt.feed
			})
			status, data := do(t, app, "GET", "/v1/ready", nil)
			assert.Equal(t, tt.status, status)
			var body struct {
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, tt.checks, body.Checks)
		})
	}
}

// ---- GraphQL ----

func TestGraphQL_Viewport(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})

	query := fmt.Sprintf(`{ viewport(id: %q) { session_id state camera { ratio } map { zoom center { lat lng } } nodes(visibleOnly: true) { id visible } } }`, created.SessionID)
	status, data := do(t, app, "POST", "/graphql", map[string]any{"query": query})
	require.Equal(t, 200, status)

	var result struct {
		Data struct {
			Viewport struct {
				SessionID string `json:"session_id"`
				State     string `json:"state"`
				Nodes     []struct {
					ID      string `json:"id"`
					Visible bool   `json:"visible"`
				} `json:"nodes"`
			} `json:"viewport"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Empty(t, result.Errors)
	assert.Equal(t, created.SessionID, result.Data.Viewport.SessionID)
	assert.Equal(t, "bound", result.Data.Viewport.State)
	assert.Len(t, result.Data.Viewport.Nodes, 3)
}

func TestGraphQL_MoveMap(t *testing.T) {
	app, _ := setupApp(t)
	created := createSession(t, app, map[string]any{"width": 800, "height": 600})

	query := fmt.Sprintf(`mutation { moveMap(id: %q, lat: -6.91, lng: 107.61, zoom: 12) { map { zoom } } }`, created.SessionID)
	status, data := do(t, app, "POST", "/graphql", map[string]any{"query": query})
	require.Equal(t, 200, status)

	var result struct {
		Data struct {
			MoveMap struct {
				Map struct {
					Zoom float64 `json:"zoom"`
				} `json:"map"`
			} `json:"moveMap"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.InDelta(t, 12, result.Data.MoveMap.Map.Zoom, 1e-6)
}

func TestGraphQL_UnknownSession(t *testing.T) {
	app, _ := setupApp(t)
	status, data := do(t, app, "POST", "/graphql", map[string]any{"query": `{ viewport(id: "nope") { state } }`})
	require.Equal(t, 200, status)
	assert.Contains(t, string(data), "session not found")
}

// ---- WebSocket ----

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app, _ := setupApp(t, func(d *handler.Dependencies, _ *usecases.SessionConfig) {
		d.Feed = fakeFeed{connected: true}
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestWebSocket_DisabledWithoutFeed(t *testing.T) {
	app, _ := setupApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
