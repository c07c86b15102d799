package domain

import "time"

// Row is the flat snake_case shape the remote store works with. Every field
// is mapped explicitly in both directions; nothing relies on zero-value
// coalescing happening to line up.
type Row struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	SortOrder int    `json:"sort_order"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Value     string `json:"value"`
	Notes     string `json:"notes"`
	DueDate   string `json:"due_date"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ToRow converts a card into its remote row representation.
func ToRow(c Card) Row {
	return Row{
		ID:        c.ID,
		GroupID:   c.GroupID,
		SortOrder: c.OrderKey,
		Title:     c.Fields.Title,
		Company:   c.Fields.Company,
		Phone:     c.Fields.Phone,
		Email:     c.Fields.Email,
		Value:     c.Fields.Value,
		Notes:     c.Fields.Notes,
		DueDate:   c.Fields.DueDate,
		Category:  c.Fields.Category,
		CreatedAt: formatStamp(c.CreatedAt),
		UpdatedAt: formatStamp(c.UpdatedAt),
	}
}

// FromRow converts a remote row back into a card. Unparseable timestamps
// default to the zero time rather than failing the whole load.
func FromRow(r Row) Card {
	return Card{
		ID:       r.ID,
		GroupID:  r.GroupID,
		OrderKey: r.SortOrder,
		Fields: Fields{
			Title:    r.Title,
			Company:  r.Company,
			Phone:    r.Phone,
			Email:    r.Email,
			Value:    r.Value,
			Notes:    r.Notes,
			DueDate:  r.DueDate,
			Category: r.Category,
		},
		CreatedAt: parseStamp(r.CreatedAt),
		UpdatedAt: parseStamp(r.UpdatedAt),
	}
}

// Columns returns the row as a column-name keyed map, excluding the primary
// key. Used to build per-row update payloads.
func (r Row) Columns() map[string]any {
	return map[string]any{
		"group_id":   r.GroupID,
		"sort_order": r.SortOrder,
		"title":      r.Title,
		"company":    r.Company,
		"phone":      r.Phone,
		"email":      r.Email,
		"value":      r.Value,
		"notes":      r.Notes,
		"due_date":   r.DueDate,
		"category":   r.Category,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
}

// ToRows maps a card slice wholesale, preserving order.
func ToRows(cards []Card) []Row {
	rows := make([]Row, len(cards))
	for i, c := range cards {
		rows[i] = ToRow(c)
	}
	return rows
}

// FromRows maps a row slice wholesale, preserving order.
func FromRows(rows []Row) []Card {
	cards := make([]Card, len(rows))
	for i, r := range rows {
		cards[i] = FromRow(r)
	}
	return cards
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseStamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
