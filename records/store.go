package records

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("batch record not found")

// Store persists batch records. Implementations must make a created record
// visible to readers before Create returns, the record is the only evidence
// of an in-flight batch if the process dies mid run.
type Store interface {
	// Create persists a new record.
	Create(ctx context.Context, record *BatchRecord) error

	// Update applies upd to the record with the given id and bumps its
	// UpdatedAt. Returns ErrNotFound if the record doesn't exist.
	Update(ctx context.Context, id string, upd Update) error

	// Get returns the record with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*BatchRecord, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]*BatchRecord, error)
}
