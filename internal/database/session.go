package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

// ErrSessionReleased is returned when a released session is asked for a connection.
var ErrSessionReleased = errors.New("database session already released")

// Session is a request-scoped Handle. It checks out dedicated pool connections
// lazily on first use and returns them on Release.
type Session struct {
	conns *Connections

	mu       sync.Mutex
	writer   *bun.Conn
	reader   *bun.Conn
	released bool
}

var _ Handle = (*Session)(nil)

// NewSession starts a session over conns. No connection is acquired yet.
func NewSession(conns *Connections) *Session {
	return &Session{conns: conns}
}

// Writer returns the session's primary connection, acquiring it if needed.
func (s *Session) Writer(ctx context.Context) (bun.IDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writerLocked(ctx)
}

// Reader returns the session's replica connection. Without a dedicated replica
// the writer connection is shared.
func (s *Session) Reader(ctx context.Context) (bun.IDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conns.Replica == s.conns.Primary {
		return s.writerLocked(ctx)
	}
	if s.released {
		return nil, ErrSessionReleased
	}
	if s.reader == nil {
		conn, err := s.conns.Replica.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire reader connection: %w", err)
		}
		s.reader = &conn
	}
	return s.reader, nil
}

func (s *Session) writerLocked(ctx context.Context) (bun.IDB, error) {
	if s.released {
		return nil, ErrSessionReleased
	}
	if s.writer == nil {
		conn, err := s.conns.Primary.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire writer connection: %w", err)
		}
		s.writer = &conn
	}
	return s.writer, nil
}

// Acquired reports whether any connection has been checked out.
func (s *Session) Acquired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer != nil || s.reader != nil
}

// Release returns every acquired connection to its pool. It is safe to call more than once.
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true

	var errs []error
	if s.writer != nil {
		if err := s.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release writer connection: %w", err))
		}
		s.writer = nil
	}
	if s.reader != nil {
		if err := s.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release reader connection: %w", err))
		}
		s.reader = nil
	}
	return errors.Join(errs...)
}
