package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/topomap/internal/core/domain"
	"github.com/samirrijal/topomap/internal/core/ports"
	"github.com/samirrijal/topomap/internal/core/viewsync"
	"github.com/samirrijal/topomap/internal/pkg/metrics"
	"github.com/samirrijal/topomap/internal/pkg/telemetry"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidDimensions = errors.New("invalid viewport dimensions")
	ErrInvalidView       = errors.New("invalid view")
	ErrTooManySessions   = errors.New("too many sessions")
)

// MaxDimension is the largest accepted viewport side in pixels.
const MaxDimension = 16384

const defaultSettleTicks = 64

// SessionConfig tunes the session service.
type SessionConfig struct {
	// Map holds the defaults for new maps; Center is used when a session
	// has neither a requested center nor nodes to frame.
	Map            ports.MapOptions
	DriftThreshold float64
	MaxSessions    int
	// SnapshotTTL is in seconds.
	SnapshotTTL int
	SettleTicks int
	// NodeLimit caps how many stored nodes a session loads.
	NodeLimit int
}

// CreateSessionRequest describes a new viewport session. Nodes are loaded
// from the repository when none are given.
type CreateSessionRequest struct {
	Width  float64
	Height float64
	Center *domain.GeoPoint
	Zoom   *float64
	Nodes  []domain.TopologyNode
}

type session struct {
	id       string
	loop     ports.EventLoop
	renderer ports.SessionRenderer
	binding  *viewsync.Binding
	labels   map[string]string
	created  time.Time
}

// SessionService owns server-side viewport sessions. Each session binds a
// headless graph renderer to a headless map and runs on its own event loop.
type SessionService struct {
	engines   ports.SessionEngines
	nodes     ports.NodeRepository
	publisher ports.EventPublisher
	snapshots ports.SnapshotCache
	cfg       SessionConfig
	log       *slog.Logger
	tracer    trace.Tracer

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates a new SessionService. engines must be complete;
// nodes, publisher and snapshots may be nil.
func NewSessionService(
	engines ports.SessionEngines,
	nodes ports.NodeRepository,
	publisher ports.EventPublisher,
	snapshots ports.SnapshotCache,
	cfg SessionConfig,
) *SessionService {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 256
	}
	if cfg.SettleTicks <= 0 {
		cfg.SettleTicks = defaultSettleTicks
	}
	if cfg.NodeLimit <= 0 {
		cfg.NodeLimit = 5000
	}
	if cfg.DriftThreshold <= 0 {
		cfg.DriftThreshold = viewsync.DefaultDriftThreshold
	}
	return &SessionService{
		engines:   engines,
		nodes:     nodes,
		publisher: publisher,
		snapshots: snapshots,
		cfg:       cfg,
		log:       slog.Default().With("component", "sessions"),
		tracer:    telemetry.Tracer(),
		sessions:  make(map[string]*session),
	}
}

// Create opens a session and returns its first settled snapshot.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*domain.ViewportSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanSessionCreate)
	defer span.End()
	start := time.Now()

	if err := validateDimensions(req.Width, req.Height); err != nil {
		return nil, spanError(span, err)
	}
	if req.Center != nil && !finitePoint(*req.Center) {
		return nil, spanError(span, fmt.Errorf("%w: center must be finite", ErrInvalidView))
	}
	if s.Count() >= s.cfg.MaxSessions {
		return nil, spanError(span, ErrTooManySessions)
	}

	nodes := req.Nodes
	if len(nodes) == 0 && s.nodes != nil {
		stored, err := s.nodes.List(ctx, s.cfg.NodeLimit)
		if err != nil {
			return nil, spanError(span, fmt.Errorf("load nodes: %w", err))
		}
		nodes = stored
	}

	sess := &session{
		id:      uuid.NewString(),
		loop:    s.engines.NewLoop(),
		labels:  make(map[string]string, len(nodes)),
		created: time.Now(),
	}
	placed := make([]ports.RendererNode, 0, len(nodes))
	for _, n := range nodes {
		if !finitePoint(n.Location) {
			continue
		}
		placed = append(placed, ports.RendererNode{ID: n.ID, Attributes: nodeAttributes(n)})
		sess.labels[n.ID] = n.Label
	}

	mapOpts := s.cfg.Map
	center := domain.GeoPoint{}
	if mapOpts.Center != nil {
		center = *mapOpts.Center
	}
	zoom := mapOpts.Zoom
	if req.Center != nil {
		center = *req.Center
	}
	if req.Zoom != nil {
		zoom = *req.Zoom
	}
	mapOpts.Center = &center
	mapOpts.Zoom = zoom

	log := s.log.With("session_id", sess.id)
	err := sess.loop.Do(func() {
		sess.renderer = s.engines.NewRenderer(placed, req.Width, req.Height, sess.loop)
		sess.binding = viewsync.Bind(sess.renderer, s.engines.NewMap,
			viewsync.WithScheduler(sess.loop),
			viewsync.WithMapOptions(mapOpts),
			viewsync.WithDriftThreshold(s.cfg.DriftThreshold),
			viewsync.WithLogger(log),
			viewsync.WithObserver(metrics.SyncObserver{}),
		)
		// The handshake framed the graph; an explicit center, or an
		// empty graph, starts on the requested view instead.
		if req.Center != nil || len(placed) == 0 {
			sess.binding.Map().SetView(center, zoom)
		}
	})
	if err != nil {
		sess.loop.Close()
		return nil, spanError(span, fmt.Errorf("bind session: %w", err))
	}
	settled := sess.loop.Settle(s.cfg.SettleTicks)

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		s.destroy(sess)
		return nil, spanError(span, ErrTooManySessions)
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()

	span.SetAttributes(
		telemetry.AttrSessionID.String(sess.id),
		telemetry.AttrNodes.Int(len(placed)),
		telemetry.AttrSettled.Bool(settled),
	)
	log.Info("session created", "nodes", len(placed), "width", req.Width, "height", req.Height)
	return s.finish(ctx, sess, "create", start, settled)
}

// Snapshot returns the current state of a session. Sessions not held by this
// instance are answered from the snapshot cache when possible.
func (s *SessionService) Snapshot(ctx context.Context, id string) (*domain.ViewportSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanSessionSnapshot)
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	sess, ok := s.get(id)
	if !ok {
		if s.snapshots != nil {
			if snap, err := s.snapshots.Get(ctx, id); err == nil && snap != nil {
				metrics.CacheHits.WithLabelValues("snapshot").Inc()
				return snap, nil
			}
			metrics.CacheMisses.WithLabelValues("snapshot").Inc()
		}
		return nil, spanError(span, ErrSessionNotFound)
	}
	snap, err := s.snapshot(sess)
	if err != nil {
		return nil, spanError(span, err)
	}
	return snap, nil
}

// MoveMap moves the map; the graph camera follows.
func (s *SessionService) MoveMap(ctx context.Context, id string, center domain.GeoPoint, zoom float64) (*domain.ViewportSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanSessionMoveMap)
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id), telemetry.AttrZoom.Float64(zoom))

	if !finitePoint(center) || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return nil, spanError(span, fmt.Errorf("%w: center and zoom must be finite", ErrInvalidView))
	}
	return s.mutate(ctx, span, id, "move_map", func(sess *session) {
		sess.binding.Map().SetView(center, zoom)
	})
}

// FitBounds shows b on the map; the graph camera follows.
func (s *SessionService) FitBounds(ctx context.Context, id string, b domain.GeoBounds) (*domain.ViewportSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanSessionFit)
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	if !finitePoint(b.SouthWest) || !finitePoint(b.NorthEast) {
		return nil, spanError(span, fmt.Errorf("%w: bounds must be finite", ErrInvalidView))
	}
	b = domain.BoundsFromCorners(b.SouthWest.Clamped(), b.NorthEast.Clamped())
	if b.IsEmpty() {
		return nil, spanError(span, fmt.Errorf("%w: bounds have no area", ErrInvalidView))
	}
	return s.mutate(ctx, span, id, "fit_bounds", func(sess *session) {
		sess.binding.Map().FitBounds(b, 0)
	})
}

// SetCamera moves the graph camera; the map follows once the camera rests.
// With steps > 1 the camera animates over that many ticks.
func (s *SessionService) SetCamera(ctx context.Context, id string, state domain.CameraState, steps int) (*domain.ViewportSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanSessionCamera)
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	for _, v := range []float64{state.X, state.Y, state.Ratio, state.Angle} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, spanError(span, fmt.Errorf("%w: camera values must be finite", ErrInvalidView))
		}
	}
	if state.Ratio <= 0 {
		return nil, spanError(span, fmt.Errorf("%w: camera ratio must be positive", ErrInvalidView))
	}
	if limit := s.cfg.SettleTicks / 2; steps > limit {
		steps = limit
	}
	return s.mutate(ctx, span, id, "set_camera", func(sess *session) {
		sess.renderer.AnimateCamera(state, steps)
	})
}

// Resize changes the session's drawing surface. The map keeps its center and
// zoom.
func (s *SessionService) Resize(ctx context.Context, id string, width, height float64) (*domain.ViewportSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanSessionResize)
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	if err := validateDimensions(width, height); err != nil {
		return nil, spanError(span, err)
	}
	return s.mutate(ctx, span, id, "resize", func(sess *session) {
		sess.renderer.Resize(width, height)
	})
}

// Close unbinds and drops a session.
func (s *SessionService) Close(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanSessionClose)
	defer span.End()
	span.SetAttributes(telemetry.AttrSessionID.String(id))

	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return spanError(span, ErrSessionNotFound)
	}

	s.destroy(sess)
	metrics.ActiveSessions.Dec()

	if s.publisher != nil {
		if err := s.publisher.PublishSessionClosed(ctx, id); err != nil {
			s.log.Warn("publish session closed", "session_id", id, "error", err)
		}
	}
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, id); err != nil {
			s.log.Warn("delete snapshot", "session_id", id, "error", err)
		}
	}
	s.log.Info("session closed", "session_id", id, "age", time.Since(sess.created).String())
	return nil
}

// CloseAll closes every session, e.g. on shutdown.
func (s *SessionService) CloseAll(ctx context.Context) {
	for _, id := range s.IDs() {
		_ = s.Close(ctx, id)
	}
}

// Count returns the number of open sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns the open session ids, sorted.
func (s *SessionService) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (s *SessionService) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// mutate runs fn on the session loop, waits for both cameras to settle and
// publishes the result.
func (s *SessionService) mutate(ctx context.Context, span trace.Span, id, op string, fn func(*session)) (*domain.ViewportSnapshot, error) {
	start := time.Now()
	sess, ok := s.get(id)
	if !ok {
		return nil, spanError(span, ErrSessionNotFound)
	}
	if err := sess.loop.Do(func() { fn(sess) }); err != nil {
		return nil, spanError(span, fmt.Errorf("%w: %v", ErrSessionNotFound, err))
	}
	settled := sess.loop.Settle(s.cfg.SettleTicks)
	span.SetAttributes(telemetry.AttrSettled.Bool(settled))
	if !settled {
		s.log.Warn("session did not settle", "session_id", id, "operation", op)
	}
	return s.finish(ctx, sess, op, start, settled)
}

func (s *SessionService) finish(ctx context.Context, sess *session, op string, start time.Time, settled bool) (*domain.ViewportSnapshot, error) {
	snap, err := s.snapshot(sess)
	if err != nil {
		return nil, err
	}
	metrics.ObserveSessionOp(op, start, settled)
	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrDrift.Float64(snap.Drift))

	if s.publisher != nil {
		if err := s.publisher.PublishViewport(ctx, snap); err != nil {
			s.log.Warn("publish viewport", "session_id", sess.id, "error", err)
		}
	}
	if s.snapshots != nil {
		if err := s.snapshots.Set(ctx, snap, s.cfg.SnapshotTTL); err != nil {
			s.log.Warn("cache snapshot", "session_id", sess.id, "error", err)
		}
	}
	return snap, nil
}

func (s *SessionService) snapshot(sess *session) (*domain.ViewportSnapshot, error) {
	var snap *domain.ViewportSnapshot
	if err := sess.loop.Do(func() { snap = buildSnapshot(sess) }); err != nil {
		return nil, ErrSessionNotFound
	}
	return snap, nil
}

func (s *SessionService) destroy(sess *session) {
	_ = sess.loop.Do(func() {
		sess.binding.Clean()
		sess.renderer.Kill()
	})
	sess.loop.Close()
}

// buildSnapshot must run on the session loop.
func buildSnapshot(sess *session) *domain.ViewportSnapshot {
	r := sess.renderer
	m := sess.binding.Map()
	dims := r.Dimensions()

	snap := &domain.ViewportSnapshot{
		SessionID:  sess.id,
		State:      sess.binding.State().String(),
		Camera:     r.Camera().State(),
		Dimensions: dims,
		Drift:      sess.binding.Drift(),
		UpdatedAt:  time.Now().UTC(),
	}
	if m != nil {
		snap.Map = domain.MapView{
			Center: m.Center(),
			Zoom:   m.Zoom(),
			Bounds: m.Bounds(),
			Size:   m.Size(),
		}
	}

	g := r.NodeView()
	for _, id := range g.Nodes() {
		x, y, ok := g.Position(id)
		if !ok {
			continue
		}
		attrs, _ := g.NodeAttributes(id)
		loc, _ := viewsync.DefaultLocation(attrs)
		gp := domain.GraphPoint{X: x, Y: y}
		vp := r.GraphToViewport(gp)
		snap.Nodes = append(snap.Nodes, domain.ProjectedNode{
			ID:       id,
			Label:    sess.labels[id],
			Location: loc,
			Graph:    gp,
			Viewport: vp,
			Visible:  vp.X >= 0 && vp.X <= dims.Width && vp.Y >= 0 && vp.Y <= dims.Height,
		})
	}
	return snap
}

// nodeAttributes flattens a topology node into renderer attributes. The
// latitude is clamped to what the projection can place.
func nodeAttributes(n domain.TopologyNode) map[string]any {
	attrs := make(map[string]any, len(n.Attributes)+3)
	for k, v := range n.Attributes {
		attrs[k] = v
	}
	attrs["lat"] = domain.ClampLatitude(n.Location.Lat)
	attrs["lng"] = n.Location.Lng
	if n.Label != "" {
		attrs["label"] = n.Label
	}
	delete(attrs, "x")
	delete(attrs, "y")
	return attrs
}

func validateDimensions(w, h float64) error {
	for _, v := range []float64{w, h} {
		if math.IsNaN(v) || v <= 0 || v > MaxDimension {
			return fmt.Errorf("%w: width and height must be in (0, %d], got %gx%g", ErrInvalidDimensions, MaxDimension, w, h)
		}
	}
	return nil
}

func finitePoint(p domain.GeoPoint) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
