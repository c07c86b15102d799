package view

import (
	"reflect"
	"testing"

	"dealboard/domain"
)

func deal(id, groupID string, key int, fields domain.Fields) domain.Card {
	return domain.Card{ID: id, GroupID: groupID, OrderKey: key, Fields: fields}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$5,000", 5000},
		{"30k", 30000},
		{"2.5m", 2500000},
		{"bad data", 0},
		{"", 0},
		{"  12K ", 12000},
		{"€1.5k", 1500},
		{"1.2.3", 0},
		{"0.5", 0.5},
		{"k", 0},
	}
	for _, c := range cases {
		if got := ParseValue(c.in); got != c.want {
			t.Fatalf("ParseValue(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAggregateTotalSpecScenario(t *testing.T) {
	cards := []domain.Card{
		deal("a", "backlog", 0, domain.Fields{Value: "$5,000"}),
		deal("b", "contacted", 0, domain.Fields{Value: "30k"}),
		deal("c", "contacted", 1, domain.Fields{Value: "2.5m"}),
		deal("d", "backlog", 1, domain.Fields{Value: "bad data"}),
		deal("e", "won", 0, domain.Fields{Value: "999k"}),
	}

	if got := AggregateTotal(cards, "won"); got != 2535000 {
		t.Fatalf("expected 2535000, got %v", got)
	}
	if got := AggregateTotal(cards); got != 2535000+999000 {
		t.Fatalf("expected full total, got %v", got)
	}
}

func TestFilterAndSearch(t *testing.T) {
	cards := []domain.Card{
		deal("a", "backlog", 0, domain.Fields{Title: "Acme renewal", Company: "Acme Corp"}),
		deal("b", "backlog", 1, domain.Fields{Title: "Intro call", Notes: "ask about ACME budget"}),
		deal("c", "won", 0, domain.Fields{Title: "Globex deal"}),
	}

	got := FilterAndSearch(cards, "", "acme")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("case-insensitive search across fields failed: %#v", got)
	}

	got = FilterAndSearch(cards, "backlog", "acme corp")
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("group filter AND search failed: %#v", got)
	}

	got = FilterAndSearch(cards, "won", "")
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("group-only filter failed: %#v", got)
	}

	if got := FilterAndSearch(cards, "", ""); len(got) != 3 {
		t.Fatalf("empty filters must match everything, got %d", len(got))
	}
}

func TestGroupBySortsByOrderKey(t *testing.T) {
	groups := []domain.Group{{ID: "backlog"}, {ID: "won"}}
	cards := []domain.Card{
		deal("b", "backlog", 2, domain.Fields{}),
		deal("a", "backlog", 0, domain.Fields{}),
		deal("w", "won", 0, domain.Fields{}),
		deal("x", "retired-group", 0, domain.Fields{}),
	}

	got := GroupBy(cards, groups)
	if len(got) != 2 {
		t.Fatalf("expected exactly the fixed group set, got %#v", got)
	}
	ids := []string{got["backlog"][0].ID, got["backlog"][1].ID}
	if !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Fatalf("partition not sorted by order key: %v", ids)
	}
	if len(got["won"]) != 1 {
		t.Fatalf("unexpected won partition: %#v", got["won"])
	}
}

func TestGroupByEmptyGroupsPresent(t *testing.T) {
	got := GroupBy(nil, []domain.Group{{ID: "backlog"}})
	if part, ok := got["backlog"]; !ok || len(part) != 0 {
		t.Fatalf("empty group must still be present: %#v", got)
	}
}
