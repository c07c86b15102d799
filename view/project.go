// Package view computes derived read-only projections of the card registry:
// filtered and searched listings, per-group partitions and the pipeline
// total. Pure functions, no side effects.
package view

import (
	"sort"
	"strconv"
	"strings"

	"dealboard/domain"
)

// FilterAndSearch returns cards matching an optional group filter ANDed with
// a case-insensitive substring search across all textual fields. Empty
// arguments match everything.
func FilterAndSearch(cards []domain.Card, groupID, query string) []domain.Card {
	query = strings.ToLower(strings.TrimSpace(query))
	out := []domain.Card{}
	for _, c := range cards {
		if groupID != "" && c.GroupID != groupID {
			continue
		}
		if query != "" && !strings.Contains(searchText(c), query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func searchText(c domain.Card) string {
	f := c.Fields
	return strings.ToLower(strings.Join([]string{
		f.Title, f.Company, f.Phone, f.Email, f.Value, f.Notes, f.DueDate, f.Category,
	}, " "))
}

// GroupBy partitions cards into the fixed group set, each partition sorted
// ascending by order key. Cards referencing a group outside the set are
// dropped from the projection.
func GroupBy(cards []domain.Card, groups []domain.Group) map[string][]domain.Card {
	out := make(map[string][]domain.Card, len(groups))
	for _, g := range groups {
		out[g.ID] = []domain.Card{}
	}
	for _, c := range cards {
		if _, ok := out[c.GroupID]; !ok {
			continue
		}
		out[c.GroupID] = append(out[c.GroupID], c)
	}
	for id := range out {
		part := out[id]
		sort.Slice(part, func(i, j int) bool {
			if part[i].OrderKey != part[j].OrderKey {
				return part[i].OrderKey < part[j].OrderKey
			}
			return part[i].ID < part[j].ID
		})
	}
	return out
}

// AggregateTotal sums the parsed value field of every card whose group is
// not excluded, e.g. excluding terminal won/lost columns from a running
// pipeline total.
func AggregateTotal(cards []domain.Card, excludedGroupIDs ...string) float64 {
	excluded := make(map[string]struct{}, len(excludedGroupIDs))
	for _, id := range excludedGroupIDs {
		excluded[id] = struct{}{}
	}
	total := 0.0
	for _, c := range cards {
		if _, skip := excluded[c.GroupID]; skip {
			continue
		}
		total += ParseValue(c.Fields.Value)
	}
	return total
}

// ParseValue reads a free-text monetary value with a lenient grammar: a
// trailing k multiplies by a thousand, m by a million, every rune that is
// not a digit or a dot is stripped, and anything still unparseable counts as
// zero. The dot is always the decimal separator; no locale inference.
func ParseValue(raw string) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = s[:len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return 0
	}
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return value * multiplier
}
