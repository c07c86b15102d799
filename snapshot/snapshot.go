// Package snapshot persists the last-known full board state as a single
// opaque blob. It is read once at startup so the board is never blank, and
// overwritten after every mutation. A missing or corrupt blob degrades to an
// empty board, never an error.
package snapshot

import (
	"context"

	"dealboard/domain"
)

// Namespace is the fixed key the blob lives under.
const Namespace = "dealboard:snapshot"

// Document is the serialized shape of the blob.
type Document struct {
	Cards      []domain.Card `json:"cards"`
	Categories []string      `json:"categories,omitempty"`
}

// Store mirrors the full board state durably.
type Store interface {
	// Load returns the last saved document. A missing or unreadable blob
	// yields an empty document and no error.
	Load(ctx context.Context) (Document, error)
	// Save overwrites the blob wholesale.
	Save(ctx context.Context, doc Document) error
}
