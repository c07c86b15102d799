package board

import (
	"context"
	"sort"

	"dealboard/domain"
)

// Reorder moves a card into destGroupID, positioned above or below the
// anchor sibling. Every card in the destination group is re-keyed to a
// dense zero-based sequence, which keeps keys a plain monotone integer
// column instead of drifting fractional midpoints. Cards in the source group
// keep their keys; gaps there are harmless.
//
// Moving a card relative to itself is a no-op. An anchor that vanished
// (raced with a delete) aborts silently with local state unchanged.
func (b *Board) Reorder(ctx context.Context, movedID, destGroupID, anchorID string, pos domain.Position) error {
	if movedID == anchorID {
		return nil
	}
	if _, ok := b.groups[destGroupID]; !ok {
		return ErrUnknownGroup
	}

	b.mu.Lock()
	moved, ok := b.cards[movedID]
	if !ok {
		b.mu.Unlock()
		return ErrNotFound
	}

	siblings := b.groupMembersLocked(destGroupID, movedID)
	anchorIdx := -1
	for i, c := range siblings {
		if c.ID == anchorID {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		b.mu.Unlock()
		return nil
	}

	insertAt := anchorIdx
	if pos == domain.Below {
		insertAt = anchorIdx + 1
	}
	siblings = append(siblings, nil)
	copy(siblings[insertAt+1:], siblings[insertAt:])
	siblings[insertAt] = moved

	now := b.now()
	dirty := make([]domain.Row, 0, len(siblings))
	movedChanged := moved.GroupID != destGroupID
	moved.GroupID = destGroupID
	for i, c := range siblings {
		if c.OrderKey == i && !(c == moved && movedChanged) {
			continue
		}
		c.OrderKey = i
		c.UpdatedAt = now
		dirty = append(dirty, domain.ToRow(*c))
	}
	if len(dirty) == 0 {
		b.mu.Unlock()
		return nil
	}
	b.writeSnapshotLocked(ctx)
	b.mu.Unlock()

	b.sched.dispatch("reorder", func(ctx context.Context) error {
		return b.sched.gw.UpsertMany(ctx, dirty, "id")
	})
	return nil
}

// AppendToGroup drops a card onto empty group space: it lands at the end of
// the destination group with key max+1 (or zero in an empty group). Only the
// moved card is dirtied.
func (b *Board) AppendToGroup(ctx context.Context, movedID, destGroupID string) error {
	if _, ok := b.groups[destGroupID]; !ok {
		return ErrUnknownGroup
	}

	b.mu.Lock()
	moved, ok := b.cards[movedID]
	if !ok {
		b.mu.Unlock()
		return ErrNotFound
	}
	moved.GroupID = destGroupID
	moved.OrderKey = b.maxOrderKeyLocked(destGroupID, movedID) + 1
	moved.UpdatedAt = b.now()
	b.writeSnapshotLocked(ctx)
	b.mu.Unlock()

	b.pushCardUpdate(movedID)
	return nil
}

// groupMembersLocked returns pointers to the live cards of a group, sorted
// ascending by order key, excluding the given id.
func (b *Board) groupMembersLocked(groupID, excludeID string) []*domain.Card {
	members := make([]*domain.Card, 0)
	for _, c := range b.cards {
		if c.GroupID != groupID || c.ID == excludeID {
			continue
		}
		members = append(members, c)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].OrderKey != members[j].OrderKey {
			return members[i].OrderKey < members[j].OrderKey
		}
		return members[i].ID < members[j].ID
	})
	return members
}
