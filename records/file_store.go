package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tranvictor/multisend/common"
)

// FileStore keeps each batch record as a json file under its directory.
// It is the default store, no database required.
type FileStore struct {
	dir string
}

func DefaultBatchDir() string {
	return filepath.Join(common.GetHomeDir(), ".multisend", "batches")
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("couldn't create batch record dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", id))
}

func (s *FileStore) write(record *BatchRecord) error {
	content, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(record.ID), content, 0644)
}

func (s *FileStore) read(id string) (*BatchRecord, error) {
	content, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record := &BatchRecord{}
	if err := json.Unmarshal(content, record); err != nil {
		return nil, fmt.Errorf("batch record %s is corrupted: %w", id, err)
	}
	return record, nil
}

func (s *FileStore) Create(ctx context.Context, record *BatchRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	return s.write(record)
}

func (s *FileStore) Update(ctx context.Context, id string, upd Update) error {
	record, err := s.read(id)
	if err != nil {
		return err
	}
	record.Status = upd.Status
	if upd.TxHashes != nil {
		record.TxHashes = upd.TxHashes
	}
	if upd.FailedAddresses != nil {
		record.FailedAddresses = upd.FailedAddresses
	}
	record.UpdatedAt = time.Now().UTC()
	return s.write(record)
}

func (s *FileStore) Get(ctx context.Context, id string) (*BatchRecord, error) {
	return s.read(id)
}

func (s *FileStore) List(ctx context.Context) ([]*BatchRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	result := []*BatchRecord{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
