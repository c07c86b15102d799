package remote

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"dealboard/domain"
)

const cardsSchema = `CREATE TABLE IF NOT EXISTS cards (
	id TEXT PRIMARY KEY,
	group_id TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	value TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT ''
)`

var cardColumns = []string{
	"id", "group_id", "sort_order", "title", "company", "phone", "email",
	"value", "notes", "due_date", "category", "created_at", "updated_at",
}

var columnSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(cardColumns))
	for _, c := range cardColumns {
		m[c] = struct{}{}
	}
	return m
}()

// Postgres implements Gateway against a cards table. It goes through
// database/sql with the pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

// Open connects to the given database URL, verifies connectivity and ensures
// the cards table exists.
func Open(ctx context.Context, databaseURL string) (*Postgres, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, cardsSchema); err != nil {
		return nil, fmt.Errorf("ensure cards table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an already opened handle. Used by tests.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) List(ctx context.Context, orderBy string) ([]domain.Row, error) {
	if orderBy == "" {
		orderBy = "sort_order"
	}
	if _, ok := columnSet[orderBy]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, orderBy)
	}
	query := fmt.Sprintf("SELECT %s FROM cards ORDER BY group_id, %s", strings.Join(cardColumns, ", "), orderBy)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	out := []domain.Row{}
	for rows.Next() {
		var r domain.Row
		if err := rows.Scan(
			&r.ID, &r.GroupID, &r.SortOrder, &r.Title, &r.Company, &r.Phone,
			&r.Email, &r.Value, &r.Notes, &r.DueDate, &r.Category,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return out, nil
}

func (p *Postgres) Insert(ctx context.Context, row domain.Row) error {
	query, args := insertStatement(row)
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert card %s: %w", row.ID, err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	query, args, err := updateStatement(id, fields)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update card %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM cards WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := "DELETE FROM cards WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %d cards: %w", len(ids), err)
	}
	return nil
}

func (p *Postgres) UpsertMany(ctx context.Context, rows []domain.Row, conflictKey string) error {
	if len(rows) == 0 {
		return nil
	}
	if conflictKey == "" {
		conflictKey = "id"
	}
	if _, ok := columnSet[conflictKey]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, conflictKey)
	}
	query, args := upsertStatement(rows, conflictKey)
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d cards: %w", len(rows), err)
	}
	return nil
}

func insertStatement(row domain.Row) (string, []any) {
	placeholders := make([]string, len(cardColumns))
	for i := range cardColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		"INSERT INTO cards (%s) VALUES (%s)",
		strings.Join(cardColumns, ", "), strings.Join(placeholders, ", "),
	)
	return query, rowArgs(row)
}

func updateStatement(id string, fields map[string]any) (string, []any, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := columnSet[col]; !ok || col == "id" {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, fields[col])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE cards SET %s WHERE id = $%d", strings.Join(sets, ", "), len(cols)+1)
	return query, args, nil
}

func upsertStatement(rows []domain.Row, conflictKey string) (string, []any) {
	width := len(cardColumns)
	values := make([]string, len(rows))
	args := make([]any, 0, len(rows)*width)
	for i, row := range rows {
		placeholders := make([]string, width)
		for j := range cardColumns {
			placeholders[j] = fmt.Sprintf("$%d", i*width+j+1)
		}
		values[i] = "(" + strings.Join(placeholders, ", ") + ")"
		args = append(args, rowArgs(row)...)
	}

	sets := make([]string, 0, width-1)
	for _, col := range cardColumns {
		if col == conflictKey {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	query := fmt.Sprintf(
		"INSERT INTO cards (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s",
		strings.Join(cardColumns, ", "),
		strings.Join(values, ", "),
		conflictKey,
		strings.Join(sets, ", "),
	)
	return query, args
}

func rowArgs(row domain.Row) []any {
	return []any{
		row.ID, row.GroupID, row.SortOrder, row.Title, row.Company, row.Phone,
		row.Email, row.Value, row.Notes, row.DueDate, row.Category,
		row.CreatedAt, row.UpdatedAt,
	}
}
