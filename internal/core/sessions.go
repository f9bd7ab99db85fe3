package core

// sessions.go manages preview sessions: a validated plan parked in
// memory between preview and confirm. Sessions survive until the user
// commits or discards them, or until the janitor sweeps them out after
// the TTL. Plans are immutable once built; revalidation swaps in a new
// plan under the lock, so concurrent readers see either the old or the
// new plan, never a partial one.

import (
	"context"
	"errors"
	"time"

	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
)

// ErrSessionNotFound is returned when a preview session does not exist
// or has already expired.
var ErrSessionNotFound = errors.New("import session not found")

// importSession holds one previewed import awaiting confirmation. The
// original file bytes are kept so the plan can be revalidated against a
// fresh reference snapshot without re-uploading.
type importSession struct {
	ID        string
	TargetKey string
	FileName  string
	Data      []byte
	Plan      *importer.Plan
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Service) putSession(sess *importSession) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

// getSession returns a copy of the session so callers never hold a
// reference that a concurrent revalidate could mutate.
func (s *Service) getSession(id string) (importSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return importSession{}, ErrSessionNotFound
	}
	return *sess, nil
}

func (s *Service) deleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// setSessionPlan replaces a session's plan after revalidation.
func (s *Service) setSessionPlan(id string, plan *importer.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Plan = plan
	sess.UpdatedAt = time.Now()
	return nil
}

// SessionCount returns the number of live preview sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweepSessions removes sessions idle past the TTL and returns how many
// were removed.
func (s *Service) sweepSessions(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.sessionTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSessionJanitor starts a background goroutine that periodically
// discards expired preview sessions. It stops when the context is
// cancelled.
func (s *Service) StartSessionJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	s.log.Info("session janitor started", "interval", interval, "ttl", s.sessionTTL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session janitor stopped")
			return
		case <-ticker.C:
			if removed := s.sweepSessions(time.Now()); removed > 0 {
				s.log.Info("expired preview sessions removed", "count", removed)
			}
		}
	}
}
