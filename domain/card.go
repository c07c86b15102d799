package domain

import "time"

// Card represents a single board item: a deal or task living in exactly one
// ordered group (column). GroupID and OrderKey are owned by the ordering
// engine; Fields are opaque to it.
type Card struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	OrderKey  int       `json:"orderKey"`
	Fields    Fields    `json:"fields"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Fields holds the domain attributes of a card. The ordering and sync engine
// never inspect their content; only the projector reads them.
type Fields struct {
	Title    string `json:"title"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Value    string `json:"value,omitempty"`
	Notes    string `json:"notes,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`
	Category string `json:"category,omitempty"`
}

// CardPatch carries a partial update. Nil pointers leave the attribute
// untouched. A non-nil GroupID is a structural change (the card is appended
// to the end of the destination group).
type CardPatch struct {
	GroupID  *string `json:"groupId,omitempty"`
	Title    *string `json:"title,omitempty"`
	Company  *string `json:"company,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Value    *string `json:"value,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	DueDate  *string `json:"dueDate,omitempty"`
	Category *string `json:"category,omitempty"`
}

// Structural reports whether applying the patch moves the card to another
// group, which bypasses the debounce path.
func (p CardPatch) Structural() bool {
	return p.GroupID != nil
}

// Apply merges the patch into the card's mutable attributes. OrderKey is
// never touched here; group moves are re-keyed by the caller.
func (p CardPatch) Apply(c *Card) {
	if p.GroupID != nil {
		c.GroupID = *p.GroupID
	}
	if p.Title != nil {
		c.Fields.Title = *p.Title
	}
	if p.Company != nil {
		c.Fields.Company = *p.Company
	}
	if p.Phone != nil {
		c.Fields.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Fields.Email = *p.Email
	}
	if p.Value != nil {
		c.Fields.Value = *p.Value
	}
	if p.Notes != nil {
		c.Fields.Notes = *p.Notes
	}
	if p.DueDate != nil {
		c.Fields.DueDate = *p.DueDate
	}
	if p.Category != nil {
		c.Fields.Category = *p.Category
	}
}

// Group identifies one ordered column of the board. The set of groups is
// static external configuration; the engine treats it as a fixed input.
type Group struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Position says where a moved card lands relative to its anchor sibling.
type Position string

const (
	Above Position = "above"
	Below Position = "below"
)

// CloneCards returns a deep-enough copy for handing registry state to
// callers: Card contains no reference types beyond strings.
func CloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
