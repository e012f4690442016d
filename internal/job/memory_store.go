package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local tooling.
type MemoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	now     func() time.Time

	// SaveErr, when set, is returned by Save.
	SaveErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]*Record),
		now:     time.Now,
	}
}

// Save implements Store.Save.
func (s *MemoryStore) Save(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}

	now := s.now()
	s.records[job.ID()] = &Record{
		ID:        job.ID(),
		Type:      job.Type(),
		Payload:   append([]byte(nil), job.Payload()...),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// Put stores rec as-is. Tests use it to seed recovery scenarios.
func (s *MemoryStore) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := rec
	s.records[rec.ID] = &r
}

// MarkProcessing implements Store.MarkProcessing.
func (s *MemoryStore) MarkProcessing(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return 0, ErrNotFound
	}
	rec.Status = StatusProcessing
	rec.Attempts++
	rec.UpdatedAt = s.now()
	return rec.Attempts, nil
}

// UpdateStatus implements Store.UpdateStatus.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.LastError = errMsg
	rec.UpdatedAt = s.now()
	return nil
}

// Pending implements Store.Pending.
func (s *MemoryStore) Pending(ctx context.Context) ([]Record, error) {
	return s.filter(StatusPending, 0), nil
}

// Processing implements Store.Processing.
func (s *MemoryStore) Processing(ctx context.Context, olderThan time.Duration) ([]Record, error) {
	return s.filter(StatusProcessing, olderThan), nil
}

// Get returns a copy of the record for id.
func (s *MemoryStore) Get(id uuid.UUID) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (s *MemoryStore) filter(status Status, olderThan time.Duration) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	var out []Record
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && rec.UpdatedAt.After(cutoff) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
