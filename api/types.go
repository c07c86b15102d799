package api

import (
	"context"

	"dealboard/board"
	"dealboard/domain"
)

// Board abstracts the core engine for handlers.
type Board interface {
	Cards() []domain.Card
	Groups() []domain.Group
	Status() board.Status
	Categories() []string

	InsertAtTop(ctx context.Context, groupID string, fields domain.Fields) (domain.Card, error)
	Patch(ctx context.Context, id string, patch domain.CardPatch) (domain.Card, error)
	Remove(ctx context.Context, id string) bool
	Reset(ctx context.Context) []string
	ReplaceAll(ctx context.Context, cards []domain.Card)
	Reorder(ctx context.Context, movedID, destGroupID, anchorID string, pos domain.Position) error
	AppendToGroup(ctx context.Context, movedID, destGroupID string) error
	AddCategory(ctx context.Context, name string) bool
}
