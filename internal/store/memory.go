package store

import (
	"context"
	"errors"
	"sync"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// MemoryStore keeps jobs in process memory, one lock per job.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*memoryEntry
}

type memoryEntry struct {
	mu  sync.Mutex
	job *models.Job
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) CreateJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicateKey
	}
	s.jobs[job.ID] = &memoryEntry{job: job.Clone()}
	return nil
}

func (s *MemoryStore) entry(id string) (*memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[id]
	return e, ok
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (*models.Job, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Clone(), nil
}

func (s *MemoryStore) ListJobs(_ context.Context, filter JobFilter) ([]*models.Job, int, error) {
	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	all := make([]*models.Job, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		all = append(all, e.job.Clone())
		e.mu.Unlock()
	}
	page, total := paginate(all, filter)
	return page, total, nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, id string, fn Mutation) (*models.Job, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := e.job.Clone()
	if err := fn(working); err != nil {
		if errors.Is(err, ErrNoChange) {
			return e.job.Clone(), nil
		}
		return nil, err
	}
	e.job = working
	return working.Clone(), nil
}

var _ Store = (*MemoryStore)(nil)
