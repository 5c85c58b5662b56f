package models

import (
	"slices"
	"strings"
	"time"

	id "basket/pkg/domain"
	dErrors "basket/pkg/domain-errors"
)

// ShoppingList is the aggregate root. Items belong to exactly one list and are
// reachable only through it.
//
// Invariants:
//   - Name is non-empty
//   - Members behaves as a set; duplicates never appear
//   - LastInteraction never decreases, and is advanced by every write to the
//     list itself or to any of its items
type ShoppingList struct {
	ID              id.ListID   `json:"id"`
	Name            string      `json:"name"`
	Members         []id.UserID `json:"members"`
	LastInteraction time.Time   `json:"last_interaction"`
}

// NewShoppingList constructs a list with the creator as sole initial member.
func NewShoppingList(listID id.ListID, name string, creator id.UserID, now time.Time) (*ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "list name must not be empty")
	}
	return &ShoppingList{
		ID:              listID,
		Name:            name,
		Members:         []id.UserID{creator},
		LastInteraction: now,
	}, nil
}

// IsMember reports whether the given user belongs to the list.
func (l *ShoppingList) IsMember(userID id.UserID) bool {
	return slices.Contains(l.Members, userID)
}

// Accessible is the membership guard: a principal may observe or mutate the
// list iff they are a member or hold the administrative capability.
// Pure predicate, no side effects.
func (l *ShoppingList) Accessible(userID id.UserID, admin bool) bool {
	return admin || l.IsMember(userID)
}

// Rename validates and applies a new name, touching the list.
func (l *ShoppingList) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "list name must not be empty")
	}
	l.Name = name
	l.Touch(now)
	return nil
}

// AddMembers merges user ids into the member set. Already-present ids are
// no-ops. The caller resolves ids to known users before calling.
func (l *ShoppingList) AddMembers(userIDs []id.UserID, now time.Time) {
	for _, userID := range userIDs {
		if !l.IsMember(userID) {
			l.Members = append(l.Members, userID)
		}
	}
	l.Touch(now)
}

// RemoveMembers drops user ids from the member set. Absent ids are no-ops.
func (l *ShoppingList) RemoveMembers(userIDs []id.UserID, now time.Time) {
	l.Members = slices.DeleteFunc(l.Members, func(m id.UserID) bool {
		return slices.Contains(userIDs, m)
	})
	l.Touch(now)
}

// Touch advances LastInteraction. Monotonic: a stale clock reading can never
// move the stamp backwards.
func (l *ShoppingList) Touch(now time.Time) {
	if now.After(l.LastInteraction) {
		l.LastInteraction = now
	}
}

// Clone returns a deep copy so in-memory storage never hands out aliased state.
func (l *ShoppingList) Clone() *ShoppingList {
	copied := *l
	copied.Members = slices.Clone(l.Members)
	return &copied
}

// ShoppingItem is owned exclusively by one list. Name is unique within the
// owning list (case-sensitive); the item carries no timestamp of its own, all
// recency lives on the parent.
type ShoppingItem struct {
	ID        id.ItemID `json:"id"`
	ListID    id.ListID `json:"-"`
	Name      string    `json:"name"`
	Purchased bool      `json:"purchased"`
	// CreatedAt orders the default (insertion-order) item view.
	CreatedAt time.Time `json:"-"`
}

// NewShoppingItem validates and constructs an item.
func NewShoppingItem(itemID id.ItemID, listID id.ListID, name string, purchased bool, now time.Time) (*ShoppingItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "item name must not be empty")
	}
	return &ShoppingItem{
		ID:        itemID,
		ListID:    listID,
		Name:      name,
		Purchased: purchased,
		CreatedAt: now,
	}, nil
}

// Rename validates and applies a new item name. Uniqueness within the list is
// the store's concern; it holds the lock.
func (i *ShoppingItem) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "item name must not be empty")
	}
	i.Name = name
	return nil
}

// SortListsByRecency orders lists most recently touched first, breaking ties
// by id so collection reads are deterministic.
func SortListsByRecency(lists []*ShoppingList) {
	slices.SortStableFunc(lists, func(a, b *ShoppingList) int {
		if !a.LastInteraction.Equal(b.LastInteraction) {
			if a.LastInteraction.After(b.LastInteraction) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
