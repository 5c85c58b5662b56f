// Package domain holds the typed identifiers shared across modules.
//
// IDs are distinct types over uuid.UUID so a ListID can never be passed where
// an ItemID is expected. Parsing enforces the trust-boundary invariant that
// IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "basket/pkg/domain-errors"
)

type (
	// UserID identifies an authenticated principal.
	UserID uuid.UUID
	// ListID identifies a shopping list aggregate.
	ListID uuid.UUID
	// ItemID identifies a shopping item within a list.
	ItemID uuid.UUID
)

// NewUserID generates a fresh user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewListID generates a fresh list identifier.
func NewListID() ListID { return ListID(uuid.New()) }

// NewItemID generates a fresh item identifier.
func NewItemID() ItemID { return ItemID(uuid.New()) }

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id ListID) String() string { return uuid.UUID(id).String() }
func (id ItemID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ListID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders IDs as canonical UUID strings in JSON payloads.
func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ListID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ItemID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ListID) UnmarshalText(b []byte) error {
	parsed, err := ParseListID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ItemID) UnmarshalText(b []byte) error {
	parsed, err := ParseItemID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseListID parses and validates a list ID from its string form.
func ParseListID(s string) (ListID, error) {
	u, err := parseUUID(s, "list id")
	return ListID(u), err
}

// ParseItemID parses and validates an item ID from its string form.
func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item id")
	return ItemID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
