// Package session implements the authoritative TCP session core: per
// connection reader/writer plumbing and the single dispatcher goroutine that
// owns the Scene.
package session

import (
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"logicgrid/internal/protocol"
)

// outboundQueueCapacity bounds each session's pending-write queue. An
// unbounded queue lets a slow client grow memory without limit. Capacity
// here is generous for normal broadcast volume; once full, the dispatcher
// drops the session rather than blocking on it (see Dispatcher.broadcast).
const outboundQueueCapacity = 1024

// Session is one joined-or-joining client connection.
type Session struct {
	ID   string
	conn net.Conn

	outbound  chan protocol.Message
	closed    chan struct{}
	closeOnce sync.Once

	Client *protocol.Client // nil until ClientRequestJoin is processed
}

// newSession wraps conn, keyed by its remote address.
func newSession(conn net.Conn) *Session {
	return &Session{
		ID:       conn.RemoteAddr().String(),
		conn:     conn,
		outbound: make(chan protocol.Message, outboundQueueCapacity),
		closed:   make(chan struct{}),
	}
}

// Send enqueues m for delivery. It reports false (does not block) if the
// session's outbound queue is full or it has already closed.
func (s *Session) Send(m protocol.Message) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.outbound <- m:
		return true
	default:
		return false
	}
}

// runWriter drains the outbound queue and writes delimiter-framed messages
// until the session closes. Runs in its own goroutine, one per session.
func (s *Session) runWriter(log *logrus.Entry) {
	for {
		select {
		case <-s.closed:
			return
		case m := <-s.outbound:
			raw, err := protocol.Encode(m)
			if err != nil {
				log.WithError(err).Warn("encode outbound message")
				continue
			}
			if _, err := s.conn.Write(raw); err != nil {
				log.WithError(err).Debug("write to session failed, closing")
				s.close()
				return
			}
		}
	}
}

// close is safe to call from both the dispatcher and the session's writer
// goroutine; only the first call closes the channel and the socket.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}
