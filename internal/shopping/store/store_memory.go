package store

import (
	"context"
	"sync"
	"time"

	"basket/internal/shopping/models"
	id "basket/pkg/domain"
	"basket/pkg/platform/sentinel"
)

// InMemory keeps lists and items under a single mutex. Item slices preserve
// insertion order. All reads and writes go through deep copies so callers
// never alias store state.
type InMemory struct {
	mu    sync.RWMutex
	lists map[id.ListID]*models.ShoppingList
	items map[id.ListID][]*models.ShoppingItem
}

func NewInMemory() *InMemory {
	return &InMemory{
		lists: make(map[id.ListID]*models.ShoppingList),
		items: make(map[id.ListID][]*models.ShoppingItem),
	}
}

func (s *InMemory) CreateList(_ context.Context, list *models.ShoppingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[list.ID]; ok {
		return sentinel.ErrConflict
	}
	s.lists[list.ID] = list.Clone()
	s.items[list.ID] = nil
	return nil
}

func (s *InMemory) FindList(_ context.Context, listID id.ListID) (*models.ShoppingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.lists[listID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return list.Clone(), nil
}

func (s *InMemory) Lists(_ context.Context) ([]*models.ShoppingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ShoppingList, 0, len(s.lists))
	for _, list := range s.lists {
		out = append(out, list.Clone())
	}
	models.SortListsByRecency(out)
	return out, nil
}

func (s *InMemory) ListsForMember(_ context.Context, userID id.UserID) ([]*models.ShoppingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ShoppingList
	for _, list := range s.lists {
		if list.IsMember(userID) {
			out = append(out, list.Clone())
		}
	}
	models.SortListsByRecency(out)
	return out, nil
}

func (s *InMemory) ExecuteList(_ context.Context, listID id.ListID,
	validate func(*models.ShoppingList) error,
	apply func(*models.ShoppingList) error,
) (*models.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lists[listID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	// Work on a copy; commit only if both callbacks succeed.
	working := current.Clone()
	if validate != nil {
		if err := validate(working); err != nil {
			return nil, err
		}
	}
	if err := apply(working); err != nil {
		return nil, err
	}
	s.lists[listID] = working
	return working.Clone(), nil
}

func (s *InMemory) DeleteList(_ context.Context, listID id.ListID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[listID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.lists, listID)
	delete(s.items, listID)
	return nil
}

func (s *InMemory) CreateItemIfNameAvailable(_ context.Context, item *models.ShoppingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[item.ListID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.items[item.ListID] {
		if existing.Name == item.Name {
			return sentinel.ErrAlreadyUsed
		}
	}

	copied := *item
	s.items[item.ListID] = append(s.items[item.ListID], &copied)
	list.Touch(item.CreatedAt)
	return nil
}

func (s *InMemory) FindItem(_ context.Context, listID id.ListID, itemID id.ItemID) (*models.ShoppingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, _, err := s.locateItem(listID, itemID)
	if err != nil {
		return nil, err
	}
	copied := *item
	return &copied, nil
}

func (s *InMemory) ItemsForList(_ context.Context, listID id.ListID) ([]*models.ShoppingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.lists[listID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]*models.ShoppingItem, 0, len(s.items[listID]))
	for _, item := range s.items[listID] {
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemory) ExecuteItem(_ context.Context, listID id.ListID, itemID id.ItemID, touchedAt time.Time,
	validate func(*models.ShoppingItem) error,
	apply func(*models.ShoppingItem) error,
) (*models.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, idx, err := s.locateItem(listID, itemID)
	if err != nil {
		return nil, err
	}

	working := *current
	if validate != nil {
		if err := validate(&working); err != nil {
			return nil, err
		}
	}
	if err := apply(&working); err != nil {
		return nil, err
	}
	for _, sibling := range s.items[listID] {
		if sibling.ID != itemID && sibling.Name == working.Name {
			return nil, sentinel.ErrAlreadyUsed
		}
	}

	s.items[listID][idx] = &working
	s.lists[listID].Touch(touchedAt)
	copied := working
	return &copied, nil
}

func (s *InMemory) DeleteItem(_ context.Context, listID id.ListID, itemID id.ItemID, touchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx, err := s.locateItem(listID, itemID)
	if err != nil {
		return err
	}
	s.items[listID] = append(s.items[listID][:idx], s.items[listID][idx+1:]...)
	s.lists[listID].Touch(touchedAt)
	return nil
}

func (s *InMemory) SearchItems(_ context.Context, term string, userID id.UserID, admin bool) ([]*models.ShoppingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := make([]*models.ShoppingList, 0, len(s.lists))
	for _, list := range s.lists {
		if admin || list.IsMember(userID) {
			visible = append(visible, list)
		}
	}
	models.SortListsByRecency(visible)

	var out []*models.ShoppingItem
	for _, list := range visible {
		for _, item := range s.items[list.ID] {
			if models.MatchesSearch(item.Name, term) {
				copied := *item
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

// locateItem resolves an item within a list. Callers hold the lock.
func (s *InMemory) locateItem(listID id.ListID, itemID id.ItemID) (*models.ShoppingItem, int, error) {
	if _, ok := s.lists[listID]; !ok {
		return nil, 0, sentinel.ErrNotFound
	}
	for idx, item := range s.items[listID] {
		if item.ID == itemID {
			return item, idx, nil
		}
	}
	return nil, 0, sentinel.ErrNotFound
}
