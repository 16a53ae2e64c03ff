package conversation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. It is meant for local runs
// and tests; everything is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]Record
	retention time.Duration
	now       func() time.Time
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]Record),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[sessionID]
	if !ok || rec.Expired(m.now()) {
		return Record{}, ErrNotFound
	}
	return clone(rec), nil
}

func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	if rec.SessionID == "" {
		return errEmptySessionID
	}
	stamp(&rec, m.now(), m.retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[rec.SessionID] = clone(rec)
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	now := m.now()
	out := m.filter(func(r Record) bool { return !r.Expired(now) })
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Since(_ context.Context, t time.Time) ([]Record, error) {
	now := m.now()
	return m.filter(func(r Record) bool { return !r.Expired(now) && !r.UpdatedAt.Before(t) }), nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.sessions {
		if rec.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) filter(keep func(Record) bool) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.sessions {
		if keep(rec) {
			out = append(out, clone(rec))
		}
	}
	return out
}

// clone copies the message slice so callers never share a backing array with
// the stored record.
func clone(rec Record) Record {
	rec.Messages = append([]Message(nil), rec.Messages...)
	return rec
}
