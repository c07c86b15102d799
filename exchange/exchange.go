// Package exchange serializes the full board to a portable document and
// validates documents coming back in. Import is all-or-nothing: a malformed
// payload is rejected before any state changes.
package exchange

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"dealboard/domain"
)

// ErrMalformedImport is returned when an import payload fails shape
// validation. The board is left untouched.
var ErrMalformedImport = errors.New("exchange: malformed import payload")

// Document is the export file shape: an ordered sequence of cards plus the
// category labels.
type Document struct {
	Cards      []domain.Card `json:"cards"`
	Categories []string      `json:"categories,omitempty"`
}

// Export serializes the document pretty-printed for hand inspection.
func Export(doc Document) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// Import parses and validates an exported document. It requires a non-empty
// card sequence where every record carries an id and a group.
func Import(data []byte) (Document, error) {
	var doc Document
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if len(doc.Cards) == 0 {
		return Document{}, fmt.Errorf("%w: no cards", ErrMalformedImport)
	}
	seen := make(map[string]struct{}, len(doc.Cards))
	for i, c := range doc.Cards {
		if c.ID == "" {
			return Document{}, fmt.Errorf("%w: card %d has no id", ErrMalformedImport, i)
		}
		if c.GroupID == "" {
			return Document{}, fmt.Errorf("%w: card %s has no group", ErrMalformedImport, c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return Document{}, fmt.Errorf("%w: duplicate card id %s", ErrMalformedImport, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return doc, nil
}
