package store

import (
	"context"
	"time"

	"basket/internal/shopping/models"
	id "basket/pkg/domain"
)

// Store persists shopping lists and their items.
//
// Implementations return sentinel errors (pkg/platform/sentinel) for the
// outcomes the service layer branches on: ErrNotFound for missing aggregates
// and ErrAlreadyUsed when an item name is already taken within its list.
//
// Mutations run under the Execute pattern: the store locks the aggregate,
// hands the current state to validate, applies the mutation, and commits —
// all atomically, so check-then-act races cannot corrupt invariants.
// Item mutations additionally advance the parent list's LastInteraction to
// touchedAt inside the same critical section.
type Store interface {
	// CreateList persists a new list.
	CreateList(ctx context.Context, list *models.ShoppingList) error

	// FindList returns a list by id, or ErrNotFound.
	FindList(ctx context.Context, listID id.ListID) (*models.ShoppingList, error)

	// Lists returns every list, most recently touched first.
	Lists(ctx context.Context) ([]*models.ShoppingList, error)

	// ListsForMember returns the lists the user belongs to, most recently
	// touched first.
	ListsForMember(ctx context.Context, userID id.UserID) ([]*models.ShoppingList, error)

	// ExecuteList atomically validates and mutates a list, returning the
	// committed state.
	ExecuteList(ctx context.Context, listID id.ListID,
		validate func(*models.ShoppingList) error,
		apply func(*models.ShoppingList) error,
	) (*models.ShoppingList, error)

	// DeleteList removes a list and all of its items.
	DeleteList(ctx context.Context, listID id.ListID) error

	// CreateItemIfNameAvailable persists a new item unless a sibling already
	// carries the same name (ErrAlreadyUsed) or the list is gone
	// (ErrNotFound). The parent list is touched with the item's CreatedAt.
	CreateItemIfNameAvailable(ctx context.Context, item *models.ShoppingItem) error

	// FindItem returns an item by id within the given list, or ErrNotFound.
	FindItem(ctx context.Context, listID id.ListID, itemID id.ItemID) (*models.ShoppingItem, error)

	// ItemsForList returns a list's items in insertion order.
	ItemsForList(ctx context.Context, listID id.ListID) ([]*models.ShoppingItem, error)

	// ExecuteItem atomically validates and mutates an item, enforcing name
	// uniqueness within the list and touching the parent with touchedAt.
	ExecuteItem(ctx context.Context, listID id.ListID, itemID id.ItemID, touchedAt time.Time,
		validate func(*models.ShoppingItem) error,
		apply func(*models.ShoppingItem) error,
	) (*models.ShoppingItem, error)

	// DeleteItem removes an item and touches the parent with touchedAt.
	DeleteItem(ctx context.Context, listID id.ListID, itemID id.ItemID, touchedAt time.Time) error

	// SearchItems returns items whose name contains term (case-insensitive)
	// across the lists visible to the principal: every list when admin,
	// otherwise only lists the user is a member of. Results are grouped by
	// list recency, then item insertion order.
	SearchItems(ctx context.Context, term string, userID id.UserID, admin bool) ([]*models.ShoppingItem, error)
}
