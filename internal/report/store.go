package report

import (
	"sync"
	"time"

	"sentinelx/internal/model"
)

// Store keeps the most recent assembled reports in a bounded ring for the
// operational API. Dispatch does not depend on it.
type Store struct {
	mu    sync.RWMutex
	buf   []model.ViolationReport
	limit int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit}
}

func (s *Store) Add(r model.ViolationReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, r)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = r
}

func (s *Store) List(limit int) []model.ViolationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.ViolationReport, 0, limit)
	for i := len(s.buf) - limit; i < len(s.buf); i++ {
		out = append(out, s.buf[i])
	}
	return out
}

func (s *Store) Since(ts time.Time) []model.ViolationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ViolationReport, 0)
	for _, r := range s.buf {
		if !r.Timestamp.Before(ts) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
