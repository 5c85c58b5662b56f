package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"basket/internal/shopping/models"
	"basket/internal/shopping/service"
	"basket/internal/transport/http/shared"
	id "basket/pkg/domain"
	dErrors "basket/pkg/domain-errors"
	pstrings "basket/pkg/platform/strings"
	"basket/pkg/requestcontext"
)

// Service is the shopping use-case surface the handler depends on.
type Service interface {
	CreateList(ctx context.Context, p service.Principal, name string) (*models.ShoppingList, error)
	Lists(ctx context.Context, p service.Principal) ([]*models.ShoppingList, error)
	GetList(ctx context.Context, p service.Principal, listID id.ListID) (*service.ListDetail, error)
	UpdateList(ctx context.Context, p service.Principal, listID id.ListID, name *string, partial bool) (*models.ShoppingList, error)
	DeleteList(ctx context.Context, p service.Principal, listID id.ListID) error
	AddMembers(ctx context.Context, p service.Principal, listID id.ListID, userIDs []id.UserID) (*models.ShoppingList, error)
	RemoveMembers(ctx context.Context, p service.Principal, listID id.ListID, userIDs []id.UserID) (*models.ShoppingList, error)
	CreateItem(ctx context.Context, p service.Principal, listID id.ListID, name string, purchased bool) (*models.ShoppingItem, error)
	GetItem(ctx context.Context, p service.Principal, listID id.ListID, itemID id.ItemID) (*models.ShoppingItem, error)
	Items(ctx context.Context, p service.Principal, listID id.ListID, ordering string) ([]*models.ShoppingItem, error)
	UpdateItem(ctx context.Context, p service.Principal, listID id.ListID, itemID id.ItemID, name *string, purchased *bool, partial bool) (*models.ShoppingItem, error)
	DeleteItem(ctx context.Context, p service.Principal, listID id.ListID, itemID id.ItemID) error
	SearchItems(ctx context.Context, p service.Principal, term string) ([]*models.ShoppingItem, error)
}

// Handler exposes the shopping API. All routes sit behind the auth
// middleware; the principal is read from the request context.
type Handler struct {
	shopping Service
	logger   *slog.Logger
	pageSize int
}

func New(shopping Service, pageSize int, logger *slog.Logger) *Handler {
	return &Handler{shopping: shopping, logger: logger, pageSize: pageSize}
}

// Register mounts the shopping routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/search-shopping-items/", h.handleSearchItems)

	r.Route("/api/shopping-lists", func(r chi.Router) {
		r.Post("/", h.handleCreateList)
		r.Get("/", h.handleLists)

		r.Route("/{listID}", func(r chi.Router) {
			r.Get("/", h.handleGetList)
			r.Put("/", h.handleUpdateList(false))
			r.Patch("/", h.handleUpdateList(true))
			r.Delete("/", h.handleDeleteList)

			r.Put("/add-members/", h.handleMembers(true))
			r.Patch("/add-members/", h.handleMembers(true))
			r.Put("/remove-members/", h.handleMembers(false))
			r.Patch("/remove-members/", h.handleMembers(false))

			r.Route("/shopping-items", func(r chi.Router) {
				r.Post("/", h.handleCreateItem)
				r.Get("/", h.handleItems)

				r.Route("/{itemID}", func(r chi.Router) {
					r.Get("/", h.handleGetItem)
					r.Put("/", h.handleUpdateItem(false))
					r.Patch("/", h.handleUpdateItem(true))
					r.Delete("/", h.handleDeleteItem)
				})
			})
		})
	})
}

type listResponse struct {
	ID              id.ListID      `json:"id"`
	Name            string         `json:"name"`
	Members         []string       `json:"members"`
	LastInteraction time.Time      `json:"last_interaction"`
	Unpurchased     []itemResponse `json:"unpurchased_items,omitempty"`
}

type itemResponse struct {
	ID        id.ItemID `json:"id"`
	Name      string    `json:"name"`
	Purchased bool      `json:"purchased"`
}

type searchItemResponse struct {
	ID        id.ItemID `json:"id"`
	ListID    id.ListID `json:"list_id"`
	Name      string    `json:"name"`
	Purchased bool      `json:"purchased"`
}

func toListResponse(list *models.ShoppingList) listResponse {
	members := make([]string, len(list.Members))
	for i, m := range list.Members {
		members[i] = m.String()
	}
	return listResponse{
		ID:              list.ID,
		Name:            list.Name,
		Members:         members,
		LastInteraction: list.LastInteraction,
	}
}

func toItemResponses(items []*models.ShoppingItem) []itemResponse {
	out := make([]itemResponse, len(items))
	for i, item := range items {
		out[i] = itemResponse{ID: item.ID, Name: item.Name, Purchased: item.Purchased}
	}
	return out
}

type listRequest struct {
	Name *string `json:"name"`
}

type itemRequest struct {
	Name      *string `json:"name"`
	Purchased *bool   `json:"purchased"`
}

type membersRequest struct {
	Members []string `json:"members"`
}

func (h *Handler) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	list, err := h.shopping.CreateList(r.Context(), principal(r.Context()), name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toListResponse(list))
}

func (h *Handler) handleLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.shopping.Lists(r.Context(), principal(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	results := make([]listResponse, len(lists))
	for i, list := range lists {
		results[i] = toListResponse(list)
	}
	shared.WriteJSON(w, http.StatusOK, shared.Paginate(r, h.pageSize, results))
}

func (h *Handler) handleGetList(w http.ResponseWriter, r *http.Request) {
	listID, ok := listIDFromPath(w, r)
	if !ok {
		return
	}
	detail, err := h.shopping.GetList(r.Context(), principal(r.Context()), listID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	resp := toListResponse(detail.List)
	resp.Unpurchased = toItemResponses(detail.UnpurchasedPreview)
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdateList(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, ok := listIDFromPath(w, r)
		if !ok {
			return
		}
		var req listRequest
		if !decodeBody(w, r, &req) {
			return
		}
		list, err := h.shopping.UpdateList(r.Context(), principal(r.Context()), listID, req.Name, partial)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toListResponse(list))
	}
}

func (h *Handler) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	listID, ok := listIDFromPath(w, r)
	if !ok {
		return
	}
	if err := h.shopping.DeleteList(r.Context(), principal(r.Context()), listID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMembers(add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, ok := listIDFromPath(w, r)
		if !ok {
			return
		}
		var req membersRequest
		if !decodeBody(w, r, &req) {
			return
		}
		members := pstrings.DedupeAndTrim(req.Members)
		userIDs := make([]id.UserID, 0, len(members))
		for _, raw := range members {
			userID, err := id.ParseUserID(raw)
			if err != nil {
				shared.WriteError(w, err)
				return
			}
			userIDs = append(userIDs, userID)
		}

		var (
			list *models.ShoppingList
			err  error
		)
		if add {
			list, err = h.shopping.AddMembers(r.Context(), principal(r.Context()), listID, userIDs)
		} else {
			list, err = h.shopping.RemoveMembers(r.Context(), principal(r.Context()), listID, userIDs)
		}
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toListResponse(list))
	}
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := listIDFromPath(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	purchased := false
	if req.Purchased != nil {
		purchased = *req.Purchased
	}
	item, err := h.shopping.CreateItem(r.Context(), principal(r.Context()), listID, name, purchased)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, itemResponse{ID: item.ID, Name: item.Name, Purchased: item.Purchased})
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	listID, ok := listIDFromPath(w, r)
	if !ok {
		return
	}
	items, err := h.shopping.Items(r.Context(), principal(r.Context()), listID, r.URL.Query().Get("ordering"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, shared.Paginate(r, h.pageSize, toItemResponses(items)))
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, ok := itemIDsFromPath(w, r)
	if !ok {
		return
	}
	item, err := h.shopping.GetItem(r.Context(), principal(r.Context()), listID, itemID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, itemResponse{ID: item.ID, Name: item.Name, Purchased: item.Purchased})
}

func (h *Handler) handleUpdateItem(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, itemID, ok := itemIDsFromPath(w, r)
		if !ok {
			return
		}
		var req itemRequest
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := h.shopping.UpdateItem(r.Context(), principal(r.Context()), listID, itemID, req.Name, req.Purchased, partial)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, itemResponse{ID: item.ID, Name: item.Name, Purchased: item.Purchased})
	}
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, ok := itemIDsFromPath(w, r)
	if !ok {
		return
	}
	if err := h.shopping.DeleteItem(r.Context(), principal(r.Context()), listID, itemID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.shopping.SearchItems(r.Context(), principal(r.Context()), r.URL.Query().Get("search"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	results := make([]searchItemResponse, len(items))
	for i, item := range items {
		results[i] = searchItemResponse{
			ID:        item.ID,
			ListID:    item.ListID,
			Name:      item.Name,
			Purchased: item.Purchased,
		}
	}
	shared.WriteJSON(w, http.StatusOK, shared.Paginate(r, h.pageSize, results))
}

func principal(ctx context.Context) service.Principal {
	return service.Principal{
		UserID: requestcontext.UserID(ctx),
		Admin:  requestcontext.IsAdmin(ctx),
	}
}

// decodeBody parses the JSON body, writing a 400 on malformed input. Unknown
// fields are tolerated and ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return false
	}
	return true
}

// listIDFromPath parses the list id path segment. A malformed id cannot name
// any list, so it reads as NotFound rather than a validation failure.
func listIDFromPath(w http.ResponseWriter, r *http.Request) (id.ListID, bool) {
	listID, err := id.ParseListID(chi.URLParam(r, "listID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "list not found"))
		return id.ListID{}, false
	}
	return listID, true
}

func itemIDsFromPath(w http.ResponseWriter, r *http.Request) (id.ListID, id.ItemID, bool) {
	listID, ok := listIDFromPath(w, r)
	if !ok {
		return id.ListID{}, id.ItemID{}, false
	}
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "item not found"))
		return id.ListID{}, id.ItemID{}, false
	}
	return listID, itemID, true
}
