package service

import (
	"context"
	"errors"
	"log/slog"

	"basket/internal/activity"
	"basket/internal/shopping/metrics"
	"basket/internal/shopping/models"
	"basket/internal/shopping/store"
	id "basket/pkg/domain"
	dErrors "basket/pkg/domain-errors"
	"basket/pkg/platform/sentinel"
	"basket/pkg/requestcontext"
)

// DefaultPreviewCap bounds the unpurchased-items preview on a list detail.
const DefaultPreviewCap = 3

// Principal identifies the caller of every operation. Admin principals bypass
// the membership guard.
type Principal struct {
	UserID id.UserID
	Admin  bool
}

// UserResolver confirms that a batch of user ids all refer to known users.
// Implemented by the auth service.
type UserResolver interface {
	ResolveUsers(ctx context.Context, userIDs []id.UserID) error
}

// ListDetail is a list together with a bounded preview of what is still left
// to buy.
type ListDetail struct {
	List               *models.ShoppingList
	UnpurchasedPreview []*models.ShoppingItem
}

// Service owns all shopping-list use cases. Every operation authorizes the
// principal against list membership before touching state; every successful
// mutation advances the list's recency stamp and emits an activity event.
type Service struct {
	store      store.Store
	users      UserResolver
	activity   activity.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	previewCap int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPreviewCap(n int) Option {
	return func(s *Service) { s.previewCap = n }
}

func New(st store.Store, users UserResolver, publisher activity.Publisher, opts ...Option) *Service {
	s := &Service{
		store:      st,
		users:      users,
		activity:   publisher,
		logger:     slog.Default(),
		previewCap: DefaultPreviewCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateList creates a list with the caller as its only member.
func (s *Service) CreateList(ctx context.Context, p Principal, name string) (*models.ShoppingList, error) {
	list, err := models.NewShoppingList(id.NewListID(), name, p.UserID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	if s.metrics != nil {
		s.metrics.ListsCreated.Inc()
	}
	s.emit(ctx, p, activity.EventListCreated, list.ID, "")
	return list, nil
}

// Lists returns the lists visible to the principal, most recently touched
// first. Admins see everything; everyone else sees only their memberships.
func (s *Service) Lists(ctx context.Context, p Principal) ([]*models.ShoppingList, error) {
	var (
		lists []*models.ShoppingList
		err   error
	)
	if p.Admin {
		lists, err = s.store.Lists(ctx)
	} else {
		lists, err = s.store.ListsForMember(ctx, p.UserID)
	}
	if err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	return lists, nil
}

// GetList returns one list with its unpurchased-items preview.
func (s *Service) GetList(ctx context.Context, p Principal, listID id.ListID) (*ListDetail, error) {
	list, err := s.authorizedList(ctx, p, listID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ItemsForList(ctx, listID)
	if err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	return &ListDetail{List: list, UnpurchasedPreview: s.preview(items)}, nil
}

// UpdateList renames a list. A full update requires a name; a partial update
// without one still counts as an interaction.
func (s *Service) UpdateList(ctx context.Context, p Principal, listID id.ListID, name *string, partial bool) (*models.ShoppingList, error) {
	if !partial && name == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "list name is required")
	}
	now := requestcontext.Now(ctx)
	updated, err := s.store.ExecuteList(ctx, listID,
		s.membershipCheck(p),
		func(l *models.ShoppingList) error {
			if name != nil {
				return l.Rename(*name, now)
			}
			l.Touch(now)
			return nil
		},
	)
	if err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	s.emit(ctx, p, activity.EventListUpdated, listID, "")
	return updated, nil
}

// DeleteList removes a list and everything on it.
func (s *Service) DeleteList(ctx context.Context, p Principal, listID id.ListID) error {
	if _, err := s.authorizedList(ctx, p, listID); err != nil {
		return err
	}
	if err := s.store.DeleteList(ctx, listID); err != nil {
		return s.mapStoreErr(err, "list")
	}
	if s.metrics != nil {
		s.metrics.ListsDeleted.Inc()
	}
	s.emit(ctx, p, activity.EventListDeleted, listID, "")
	return nil
}

// AddMembers grants the given users membership. The whole batch is resolved
// first: one unknown id rejects the request and nothing is applied.
func (s *Service) AddMembers(ctx context.Context, p Principal, listID id.ListID, userIDs []id.UserID) (*models.ShoppingList, error) {
	if err := s.users.ResolveUsers(ctx, userIDs); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	updated, err := s.store.ExecuteList(ctx, listID,
		s.membershipCheck(p),
		func(l *models.ShoppingList) error {
			l.AddMembers(userIDs, now)
			return nil
		},
	)
	if err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	s.emit(ctx, p, activity.EventMembersAdded, listID, "")
	return updated, nil
}

// RemoveMembers revokes membership. Ids not in the member set are ignored, so
// the operation is idempotent.
func (s *Service) RemoveMembers(ctx context.Context, p Principal, listID id.ListID, userIDs []id.UserID) (*models.ShoppingList, error) {
	now := requestcontext.Now(ctx)
	updated, err := s.store.ExecuteList(ctx, listID,
		s.membershipCheck(p),
		func(l *models.ShoppingList) error {
			l.RemoveMembers(userIDs, now)
			return nil
		},
	)
	if err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	s.emit(ctx, p, activity.EventMembersRemoved, listID, "")
	return updated, nil
}

// CreateItem adds an item to a list. Names are unique within the list.
func (s *Service) CreateItem(ctx context.Context, p Principal, listID id.ListID, name string, purchased bool) (*models.ShoppingItem, error) {
	if _, err := s.authorizedList(ctx, p, listID); err != nil {
		return nil, err
	}
	item, err := models.NewShoppingItem(id.NewItemID(), listID, name, purchased, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateItemIfNameAvailable(ctx, item); err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	if s.metrics != nil {
		s.metrics.ItemsCreated.Inc()
	}
	s.emit(ctx, p, activity.EventItemCreated, listID, item.ID.String())
	return item, nil
}

// GetItem returns one item from a list the principal can access.
func (s *Service) GetItem(ctx context.Context, p Principal, listID id.ListID, itemID id.ItemID) (*models.ShoppingItem, error) {
	if _, err := s.authorizedList(ctx, p, listID); err != nil {
		return nil, err
	}
	item, err := s.store.FindItem(ctx, listID, itemID)
	if err != nil {
		return nil, s.mapStoreErr(err, "item")
	}
	return item, nil
}

// Items returns a list's items, optionally sorted by an ordering expression
// such as "purchased,-name". Unknown fields in the expression are ignored.
func (s *Service) Items(ctx context.Context, p Principal, listID id.ListID, ordering string) ([]*models.ShoppingItem, error) {
	if _, err := s.authorizedList(ctx, p, listID); err != nil {
		return nil, err
	}
	items, err := s.store.ItemsForList(ctx, listID)
	if err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	models.SortItems(items, models.ParseOrdering(ordering))
	return items, nil
}

// UpdateItem renames an item and/or flips its purchased flag. A full update
// requires the name; a partial update applies whatever subset was sent.
func (s *Service) UpdateItem(ctx context.Context, p Principal, listID id.ListID, itemID id.ItemID, name *string, purchased *bool, partial bool) (*models.ShoppingItem, error) {
	if !partial && name == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "item name is required")
	}
	if _, err := s.authorizedList(ctx, p, listID); err != nil {
		return nil, err
	}
	updated, err := s.store.ExecuteItem(ctx, listID, itemID, requestcontext.Now(ctx), nil,
		func(i *models.ShoppingItem) error {
			if name != nil {
				if err := i.Rename(*name); err != nil {
					return err
				}
			}
			if purchased != nil {
				i.Purchased = *purchased
			}
			return nil
		},
	)
	if err != nil {
		return nil, s.mapStoreErr(err, "item")
	}
	s.emit(ctx, p, activity.EventItemUpdated, listID, itemID.String())
	return updated, nil
}

// DeleteItem removes an item from a list.
func (s *Service) DeleteItem(ctx context.Context, p Principal, listID id.ListID, itemID id.ItemID) error {
	if _, err := s.authorizedList(ctx, p, listID); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, listID, itemID, requestcontext.Now(ctx)); err != nil {
		return s.mapStoreErr(err, "item")
	}
	if s.metrics != nil {
		s.metrics.ItemsDeleted.Inc()
	}
	s.emit(ctx, p, activity.EventItemDeleted, listID, itemID.String())
	return nil
}

// SearchItems finds items by case-insensitive substring across every list the
// principal can access. Reads only; recency is untouched.
func (s *Service) SearchItems(ctx context.Context, p Principal, term string) ([]*models.ShoppingItem, error) {
	items, err := s.store.SearchItems(ctx, term, p.UserID, p.Admin)
	if err != nil {
		return nil, s.mapStoreErr(err, "item")
	}
	if s.metrics != nil {
		s.metrics.Searches.Inc()
	}
	return items, nil
}

// authorizedList loads a list and applies the membership guard. Unknown list
// ids surface as NotFound; known lists the principal cannot access surface as
// Forbidden.
func (s *Service) authorizedList(ctx context.Context, p Principal, listID id.ListID) (*models.ShoppingList, error) {
	list, err := s.store.FindList(ctx, listID)
	if err != nil {
		return nil, s.mapStoreErr(err, "list")
	}
	if err := s.guard(list, p); err != nil {
		return nil, err
	}
	return list, nil
}

// membershipCheck is the guard as an Execute-pattern validate callback, so
// authorization and mutation commit under the same lock.
func (s *Service) membershipCheck(p Principal) func(*models.ShoppingList) error {
	return func(l *models.ShoppingList) error {
		return s.guard(l, p)
	}
}

func (s *Service) guard(list *models.ShoppingList, p Principal) error {
	if list.Accessible(p.UserID, p.Admin) {
		return nil
	}
	if s.metrics != nil {
		s.metrics.AccessDenied.Inc()
	}
	return dErrors.New(dErrors.CodeForbidden, "you are not a member of this list")
}

// preview returns the first unpurchased items in insertion order, capped.
func (s *Service) preview(items []*models.ShoppingItem) []*models.ShoppingItem {
	out := make([]*models.ShoppingItem, 0, s.previewCap)
	for _, item := range items {
		if item.Purchased {
			continue
		}
		out = append(out, item)
		if len(out) == s.previewCap {
			break
		}
	}
	return out
}

func (s *Service) mapStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeInvalidInput, "an item with this name already exists on the list")
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}

func (s *Service) emit(ctx context.Context, p Principal, eventType activity.EventType, listID id.ListID, itemID string) {
	event := activity.Event{
		Type:      eventType,
		ListID:    listID,
		ItemID:    itemID,
		ActorID:   p.UserID,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "activity emit failed", "type", string(eventType), "error", err)
	}
}
