// Package board holds the optimistic local-first core: the in-memory card
// registry the UI renders from, the ordering engine that keeps per-group sort
// keys dense, and the scheduler that mirrors every mutation to the remote
// store without ever blocking the caller.
package board

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"dealboard/domain"
	"dealboard/remote"
	"dealboard/snapshot"
)

var (
	// ErrNotFound is returned when a mutation references an unknown card id.
	ErrNotFound = errors.New("board: card not found")
	// ErrUnknownGroup is returned when a mutation targets a group outside
	// the configured set.
	ErrUnknownGroup = errors.New("board: unknown group")
)

// Config wires a Board. Groups are static external configuration; the board
// never mutates the set.
type Config struct {
	Groups         []domain.Group
	Snapshot       snapshot.Store
	Gateway        remote.Gateway
	Logger         *log.Logger
	DebounceWindow time.Duration
	PushTimeout    time.Duration
}

// Board owns the single mutable card list. All mutations run to completion
// under its lock, write the local snapshot before returning, and hand the
// remote push to the scheduler. Remote failures never roll local state back.
type Board struct {
	mu         sync.Mutex
	cards      map[string]*domain.Card
	categories []string

	groups    map[string]domain.Group
	groupList []domain.Group
	snap      snapshot.Store
	logger    *log.Logger
	sched     *scheduler

	now   func() time.Time
	newID func() string
}

// New builds a Board and hydrates it from the local snapshot so the caller
// always has state, even before the remote store is reachable.
func New(ctx context.Context, cfg Config) (*Board, error) {
	if cfg.Snapshot == nil {
		return nil, errors.New("board: snapshot store is required")
	}
	if cfg.Gateway == nil {
		return nil, errors.New("board: remote gateway is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	if len(cfg.Groups) == 0 {
		return nil, errors.New("board: at least one group is required")
	}

	b := &Board{
		cards:     make(map[string]*domain.Card),
		groups:    make(map[string]domain.Group, len(cfg.Groups)),
		groupList: append([]domain.Group(nil), cfg.Groups...),
		snap:      cfg.Snapshot,
		logger:    cfg.Logger,
		sched:     newScheduler(cfg.Gateway, cfg.Logger, cfg.DebounceWindow, cfg.PushTimeout),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, g := range cfg.Groups {
		b.groups[g.ID] = g
	}

	doc, err := b.snap.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Cards {
		c := doc.Cards[i]
		b.cards[c.ID] = &c
	}
	b.categories = append(b.categories, doc.Categories...)

	return b, nil
}

// Close cancels pending debounce timers and waits for in-flight pushes.
func (b *Board) Close() {
	b.sched.close()
}

// Groups returns the configured group set in display order.
func (b *Board) Groups() []domain.Group {
	return append([]domain.Group(nil), b.groupList...)
}

// Status reports the current sync state.
func (b *Board) Status() Status {
	return b.sched.currentStatus()
}

// Cards returns a copy of the registry sorted by group then order key.
func (b *Board) Cards() []domain.Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cardsLocked()
}

func (b *Board) cardsLocked() []domain.Card {
	out := make([]domain.Card, 0, len(b.cards))
	for _, c := range b.cards {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		if out[i].OrderKey != out[j].OrderKey {
			return out[i].OrderKey < out[j].OrderKey
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// InsertAtTop creates a card at the front of the group's visible order.
// Every existing card in the group is bumped down by one so the new card can
// take key zero. The insert and the bumped siblings go out as one push.
func (b *Board) InsertAtTop(ctx context.Context, groupID string, fields domain.Fields) (domain.Card, error) {
	if _, ok := b.groups[groupID]; !ok {
		return domain.Card{}, ErrUnknownGroup
	}

	b.mu.Lock()
	now := b.now()
	bumped := make([]domain.Row, 0)
	for _, c := range b.cards {
		if c.GroupID != groupID {
			continue
		}
		c.OrderKey++
		c.UpdatedAt = now
		bumped = append(bumped, domain.ToRow(*c))
	}
	card := domain.Card{
		ID:        b.newID(),
		GroupID:   groupID,
		OrderKey:  0,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.cards[card.ID] = &card
	b.writeSnapshotLocked(ctx)
	b.mu.Unlock()

	row := domain.ToRow(card)
	b.sched.dispatch("insert", func(ctx context.Context) error {
		if err := b.sched.gw.Insert(ctx, row); err != nil {
			return err
		}
		if len(bumped) == 0 {
			return nil
		}
		return b.sched.gw.UpsertMany(ctx, bumped, "id")
	})

	return card, nil
}

// Patch merges a partial update into a card. Free-text edits are pushed on
// the per-card debounce window; a group move is structural and goes out
// immediately with append-to-end placement in the destination group.
func (b *Board) Patch(ctx context.Context, id string, patch domain.CardPatch) (domain.Card, error) {
	if patch.GroupID != nil {
		if _, ok := b.groups[*patch.GroupID]; !ok {
			return domain.Card{}, ErrUnknownGroup
		}
	}

	b.mu.Lock()
	c, ok := b.cards[id]
	if !ok {
		b.mu.Unlock()
		return domain.Card{}, ErrNotFound
	}

	structural := patch.Structural() && *patch.GroupID != c.GroupID
	patch.Apply(c)
	if structural {
		c.OrderKey = b.maxOrderKeyLocked(c.GroupID, c.ID) + 1
	}
	c.UpdatedAt = b.now()
	updated := *c
	b.writeSnapshotLocked(ctx)
	b.mu.Unlock()

	if structural {
		b.pushCardUpdate(updated.ID)
	} else {
		b.sched.debounce(updated.ID, func() (domain.Row, bool) { return b.readRow(updated.ID) })
	}
	return updated, nil
}

// Remove deletes a card and reports whether it existed. Remaining keys in
// its group are left untouched; gaps are harmless.
func (b *Board) Remove(ctx context.Context, id string) bool {
	b.mu.Lock()
	_, ok := b.cards[id]
	if !ok {
		b.mu.Unlock()
		return false
	}
	delete(b.cards, id)
	b.writeSnapshotLocked(ctx)
	b.mu.Unlock()

	b.sched.cancelDebounce(id)
	b.sched.dispatch("delete", func(ctx context.Context) error {
		return b.sched.gw.Delete(ctx, id)
	})
	return true
}

// Reset clears the registry entirely and returns the removed ids.
func (b *Board) Reset(ctx context.Context) []string {
	b.mu.Lock()
	ids := make([]string, 0, len(b.cards))
	for id := range b.cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	b.cards = make(map[string]*domain.Card)
	b.writeSnapshotLocked(ctx)
	b.mu.Unlock()

	b.sched.cancelAllDebounce()
	if len(ids) > 0 {
		b.sched.dispatch("reset", func(ctx context.Context) error {
			return b.sched.gw.DeleteMany(ctx, ids)
		})
	}
	return ids
}

// ReplaceAll substitutes the whole registry, reseeds the snapshot and pushes
// a full upsert keyed by card id. Used by import.
func (b *Board) ReplaceAll(ctx context.Context, cards []domain.Card) {
	b.mu.Lock()
	b.cards = make(map[string]*domain.Card, len(cards))
	for i := range cards {
		c := cards[i]
		b.cards[c.ID] = &c
	}
	b.writeSnapshotLocked(ctx)
	rows := domain.ToRows(b.cardsLocked())
	b.mu.Unlock()

	b.sched.cancelAllDebounce()
	b.sched.dispatch("import", func(ctx context.Context) error {
		return b.sched.gw.UpsertMany(ctx, rows, "id")
	})
}

// RefreshFromRemote lists the remote store and, on success, replaces the
// registry and reseeds the snapshot. On failure local state stays as-is and
// the status drops to offline.
func (b *Board) RefreshFromRemote(ctx context.Context) error {
	b.sched.setStatus(StatusSyncing)
	rows, err := b.sched.gw.List(ctx, "sort_order")
	if err != nil {
		b.sched.setStatus(StatusOffline)
		b.logger.WithError(err).Warn("remote refresh failed, keeping local state")
		return err
	}

	b.mu.Lock()
	b.cards = make(map[string]*domain.Card, len(rows))
	for _, r := range rows {
		c := domain.FromRow(r)
		b.cards[c.ID] = &c
	}
	b.writeSnapshotLocked(ctx)
	b.mu.Unlock()

	b.sched.cancelAllDebounce()
	b.sched.setStatus(StatusSynced)
	return nil
}

// Categories returns the append-only label set.
func (b *Board) Categories() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.categories...)
}

// AddCategory appends a label unless it already exists. Labels are never
// removed and carry no referential integrity towards cards.
func (b *Board) AddCategory(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.categories {
		if c == name {
			return false
		}
	}
	b.categories = append(b.categories, name)
	b.writeSnapshotLocked(ctx)
	return true
}

// pushCardUpdate dispatches an immediate single-row update for the card.
// The row is re-read at push time; a card that vanished in the meantime is
// skipped silently.
func (b *Board) pushCardUpdate(id string) {
	b.sched.pushUpdate(id, func() (domain.Row, bool) { return b.readRow(id) })
}

// readRow captures the current state of a card as a remote row. The
// scheduler calls it immediately before building an outgoing payload so a
// push always reflects the latest edit.
func (b *Board) readRow(id string) (domain.Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cards[id]
	if !ok {
		return domain.Row{}, false
	}
	return domain.ToRow(*c), true
}

func (b *Board) maxOrderKeyLocked(groupID, excludeID string) int {
	max := -1
	for _, c := range b.cards {
		if c.GroupID != groupID || c.ID == excludeID {
			continue
		}
		if c.OrderKey > max {
			max = c.OrderKey
		}
	}
	return max
}

// writeSnapshotLocked mirrors the registry to the snapshot store before the
// mutation returns. Failures are logged, never surfaced: the in-memory state
// is the user's authoritative view.
func (b *Board) writeSnapshotLocked(ctx context.Context) {
	doc := snapshot.Document{
		Cards:      b.cardsLocked(),
		Categories: append([]string(nil), b.categories...),
	}
	if err := b.snap.Save(ctx, doc); err != nil {
		b.logger.WithError(err).Error("snapshot write failed")
	}
}
