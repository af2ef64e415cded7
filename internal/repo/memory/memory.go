package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/wgwatch/internal/domain"
	"github.com/hamed0406/wgwatch/internal/repo"
)

const defaultEventCap = 100

type Store struct {
	mu     sync.RWMutex
	status repo.Status
	events []domain.EventRecord // oldest first, at most cap entries
	cap    int
}

func New() *Store { return NewWithCap(defaultEventCap) }

func NewWithCap(n int) *Store {
	if n < 1 {
		n = 1
	}
	return &Store{
		status: repo.Status{Snapshot: domain.InitialSnapshot()},
		events: make([]domain.EventRecord, 0, n),
		cap:    n,
	}
}

func (m *Store) RecordSuccess(ctx context.Context, snap domain.Snapshot, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Snapshot = snap.Clone()
	m.status.Observed = true
	m.status.CheckedAt = at
	m.status.LastSuccessAt = at
	m.status.ConsecutiveFailures = 0
	m.status.LastError = ""
	return nil
}

func (m *Store) RecordFailure(ctx context.Context, failures int, cause error, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.CheckedAt = at
	m.status.ConsecutiveFailures = failures
	if cause != nil {
		m.status.LastError = cause.Error()
	}
	return nil
}

func (m *Store) AppendEvent(ctx context.Context, rec domain.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == m.cap {
		copy(m.events, m.events[1:])
		m.events = m.events[:m.cap-1]
	}
	m.events = append(m.events, rec)
	return nil
}

func (m *Store) Latest(ctx context.Context) (repo.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.status
	st.Snapshot = m.status.Snapshot.Clone()
	return st, nil
}

func (m *Store) Events(ctx context.Context, limit int) ([]domain.EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.events) {
		limit = len(m.events)
	}
	out := make([]domain.EventRecord, 0, limit)
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}
