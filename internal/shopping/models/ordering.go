package models

import (
	"slices"
	"strings"
)

// Sortable item fields. Anything else in an ordering expression is dropped.
const (
	FieldName      = "name"
	FieldPurchased = "purchased"
)

// SortKey is one parsed ordering component.
type SortKey struct {
	Field string
	Desc  bool
}

// ParseOrdering turns a comma-separated ordering expression into sort keys.
// A leading '-' means descending. Unknown fields are skipped silently, so a
// typo degrades to a partial ordering instead of an error. An empty or fully
// unrecognised expression yields no keys and the caller keeps insertion order.
func ParseOrdering(expr string) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		switch field {
		case FieldName, FieldPurchased:
			keys = append(keys, SortKey{Field: field, Desc: desc})
		}
	}
	return keys
}

// SortItems orders items by the given keys, earlier keys taking precedence.
// The sort is stable, so ties fall back to the incoming (insertion) order.
// Name compares case-sensitively; purchased sorts false before true.
func SortItems(items []*ShoppingItem, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(items, func(a, b *ShoppingItem) int {
		for _, key := range keys {
			var c int
			switch key.Field {
			case FieldName:
				c = strings.Compare(a.Name, b.Name)
			case FieldPurchased:
				c = boolCompare(a.Purchased, b.Purchased)
			}
			if c != 0 {
				if key.Desc {
					return -c
				}
				return c
			}
		}
		return 0
	})
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

// MatchesSearch reports whether an item name contains the term,
// case-insensitively. An empty term matches everything.
func MatchesSearch(name, term string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(term))
}
