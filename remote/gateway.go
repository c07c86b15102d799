package remote

import (
	"context"
	"errors"

	"dealboard/domain"
)

// Gateway is the contract the sync scheduler pushes through. Every call is a
// single round trip against the remote store; failures are reported, never
// retried here.
type Gateway interface {
	List(ctx context.Context, orderBy string) ([]domain.Row, error)
	Insert(ctx context.Context, row domain.Row) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	UpsertMany(ctx context.Context, rows []domain.Row, conflictKey string) error
}

// ErrUnknownColumn is returned when a caller references a column outside the
// cards schema, before any SQL reaches the store.
var ErrUnknownColumn = errors.New("remote: unknown column")
