package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/topomap/internal/core/domain"
)

// Subjects used for viewport events.
const (
	ViewportSubjectPrefix = "topomap.viewport."
	SessionClosedSubject  = "topomap.session.closed"
)

// ViewportSubject returns the subject snapshots of one session are published on.
// An empty id subscribes to every session.
func ViewportSubject(sessionID string) string {
	if sessionID == "" {
		return ViewportSubjectPrefix + ">"
	}
	return ViewportSubjectPrefix + sessionID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "TOPOMAP_VIEWPORTS",
		Subjects:  []string{ViewportSubjectPrefix + ">", SessionClosedSubject},
		Retention: nats.LimitsPolicy,
		MaxAge:    10 * time.Minute,
		Storage:   nats.MemoryStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishViewport publishes a snapshot on the session's viewport subject.
func (p *Publisher) PublishViewport(ctx context.Context, snap *domain.ViewportSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ViewportSubject(snap.SessionID), data, nats.Context(ctx))
	return err
}

// PublishSessionClosed announces that a session was closed.
func (p *Publisher) PublishSessionClosed(ctx context.Context, sessionID string) error {
	_, err := p.js.Publish(SessionClosedSubject, []byte(sessionID), nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for readiness checks and relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
