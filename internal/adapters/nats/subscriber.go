package natsadapter

import (
	"github.com/nats-io/nats.go"
)

// Subscriber hands raw viewport events to callbacks. It shares a connection
// with the caller and never closes it.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber wraps an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeViewport delivers every snapshot published for sessionID, or for
// all sessions when sessionID is empty.
func (s *Subscriber) SubscribeViewport(sessionID string, fn func(data []byte)) (func(), error) {
	return s.subscribe(ViewportSubject(sessionID), fn)
}

// SubscribeClosed delivers the ids of closed sessions.
func (s *Subscriber) SubscribeClosed(fn func(data []byte)) (func(), error) {
	return s.subscribe(SessionClosedSubject, fn)
}

func (s *Subscriber) subscribe(subject string, fn func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Connected reports the connection state.
func (s *Subscriber) Connected() bool {
	return s.conn != nil && s.conn.IsConnected()
}
