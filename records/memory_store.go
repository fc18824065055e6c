package records

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests. CreateErr and UpdateErr
// can be set to force the corresponding operation to fail.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*BatchRecord

	CreateErr error
	UpdateErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*BatchRecord{}}
}

func clone(record *BatchRecord) *BatchRecord {
	copied := *record
	copied.Recipients = append(record.Recipients[:0:0], record.Recipients...)
	copied.TxHashes = append(record.TxHashes[:0:0], record.TxHashes...)
	copied.FailedAddresses = append(record.FailedAddresses[:0:0], record.FailedAddresses...)
	return &copied
}

func (s *MemoryStore) Create(ctx context.Context, record *BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.records[record.ID] = clone(record)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	record.Status = upd.Status
	if upd.TxHashes != nil {
		record.TxHashes = append(upd.TxHashes[:0:0], upd.TxHashes...)
	}
	if upd.FailedAddresses != nil {
		record.FailedAddresses = append(upd.FailedAddresses[:0:0], upd.FailedAddresses...)
	}
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*BatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(record), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*BatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*BatchRecord{}
	for _, record := range s.records {
		result = append(result, clone(record))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
