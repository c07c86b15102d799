package remote

import (
	"strings"
	"testing"

	"dealboard/domain"
)

func TestUpdateStatementDeterministicOrder(t *testing.T) {
	fields := map[string]any{"sort_order": 2, "group_id": "won", "updated_at": "x"}
	query, args, err := updateStatement("c1", fields)
	if err != nil {
		t.Fatalf("update statement: %v", err)
	}

	want := "UPDATE cards SET group_id = $1, sort_order = $2, updated_at = $3 WHERE id = $4"
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if args[0] != "won" || args[1] != 2 || args[2] != "x" || args[3] != "c1" {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestUpdateStatementRejectsUnknownColumn(t *testing.T) {
	if _, _, err := updateStatement("c1", map[string]any{"group_id; DROP TABLE cards": 1}); err == nil {
		t.Fatal("expected unknown column error")
	}
	if _, _, err := updateStatement("c1", map[string]any{"id": "c2"}); err == nil {
		t.Fatal("primary key must not be updatable")
	}
}

func TestUpsertStatementShape(t *testing.T) {
	rows := []domain.Row{
		domain.ToRow(domain.Card{ID: "a", GroupID: "backlog"}),
		domain.ToRow(domain.Card{ID: "b", GroupID: "backlog", OrderKey: 1}),
	}
	query, args := upsertStatement(rows, "id")

	if !strings.Contains(query, "ON CONFLICT (id) DO UPDATE SET") {
		t.Fatalf("missing conflict clause: %s", query)
	}
	if strings.Contains(query, "id = EXCLUDED.id") {
		t.Fatalf("conflict key must not be reassigned: %s", query)
	}
	if !strings.Contains(query, "$26") || strings.Contains(query, "$27") {
		t.Fatalf("expected exactly 26 placeholders: %s", query)
	}
	if len(args) != 2*len(cardColumns) {
		t.Fatalf("expected %d args, got %d", 2*len(cardColumns), len(args))
	}
	if args[0] != "a" || args[len(cardColumns)] != "b" {
		t.Fatalf("row args out of order: %#v", args)
	}
}

func TestInsertStatementCoversEveryColumn(t *testing.T) {
	query, args := insertStatement(domain.ToRow(domain.Card{ID: "a", GroupID: "g"}))
	if len(args) != len(cardColumns) {
		t.Fatalf("expected %d args, got %d", len(cardColumns), len(args))
	}
	for _, col := range cardColumns {
		if !strings.Contains(query, col) {
			t.Fatalf("column %s missing from insert: %s", col, query)
		}
	}
}
