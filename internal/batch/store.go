package batch

import (
	"context"
	"errors"
	"sync"
)

// ErrBatchNotFound is returned by Store.Get for unknown batch IDs.
var ErrBatchNotFound = errors.New("batch not found")

// Store persists batch results for later status lookups.
//
// The interface exists so the in-process map used by default can be swapped
// for an external store without touching the processing logic.
// Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, res *Result) error
	Get(ctx context.Context, batchID string) (*Result, error)
}

// MemoryStore keeps batch results in process memory.
//
// Results do not survive a restart and there is no eviction; this is the
// acknowledged simplification for single-node deployments. Configure a
// database-backed store for anything durable.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*Result
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]*Result),
	}
}

// Put stores a batch result, replacing any previous entry for the same ID.
func (s *MemoryStore) Put(_ context.Context, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[res.BatchID] = res
	return nil
}

// Get retrieves a previously stored batch result.
func (s *MemoryStore) Get(_ context.Context, batchID string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	return res, nil
}

// Len returns the number of stored batches.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}
