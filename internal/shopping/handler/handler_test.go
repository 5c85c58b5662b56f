package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basket/internal/activity"
	"basket/internal/shopping/handler"
	"basket/internal/shopping/service"
	"basket/internal/shopping/store"
	id "basket/pkg/domain"
	dErrors "basket/pkg/domain-errors"
	"basket/pkg/testutil"
)

type knownUsers map[id.UserID]bool

func (k knownUsers) ResolveUsers(_ context.Context, userIDs []id.UserID) error {
	for _, userID := range userIDs {
		if !k[userID] {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown user: "+userID.String())
		}
	}
	return nil
}

type fixture struct {
	t      *testing.T
	router *chi.Mux
	users  knownUsers
	now    time.Time
	owner  id.UserID
	other  id.UserID
	admin  id.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	f := &fixture{
		t:     t,
		users: make(knownUsers),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.owner = f.newUser()
	f.other = f.newUser()
	f.admin = f.newUser()

	svc := service.New(store.NewInMemory(), f.users, activity.NewLogPublisher(logger), service.WithLogger(logger))
	f.router = chi.NewRouter()
	handler.New(svc, 20, logger).Register(f.router)
	return f
}

func (f *fixture) newUser() id.UserID {
	userID := id.NewUserID()
	f.users[userID] = true
	return userID
}

// do executes a request as the given user with the fixture clock pinned.
func (f *fixture) do(req *http.Request, userID id.UserID) *httptest.ResponseRecorder {
	req = testutil.AsUser(req, userID)
	req = testutil.AtTime(req, f.now)
	return testutil.DoRequest(f.router, req)
}

func (f *fixture) doAsAdmin(req *http.Request) *httptest.ResponseRecorder {
	req = testutil.AsAdmin(req, f.admin)
	req = testutil.AtTime(req, f.now)
	return testutil.DoRequest(f.router, req)
}

type listResp struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Members         []string   `json:"members"`
	LastInteraction time.Time  `json:"last_interaction"`
	Unpurchased     []itemResp `json:"unpurchased_items"`
}

type itemResp struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Purchased bool   `json:"purchased"`
}

type searchResp struct {
	ID        string `json:"id"`
	ListID    string `json:"list_id"`
	Name      string `json:"name"`
	Purchased bool   `json:"purchased"`
}

type envelope struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

func (f *fixture) createList(userID id.UserID, name string) listResp {
	f.t.Helper()
	req := testutil.NewJSONRequest(f.t, http.MethodPost, "/api/shopping-lists/", map[string]string{"name": name})
	rr := f.do(req, userID)
	testutil.AssertStatus(f.t, rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[listResp](f.t, rr)
}

func (f *fixture) createItem(userID id.UserID, listID, name string, purchased bool) itemResp {
	f.t.Helper()
	req := testutil.NewJSONRequest(f.t, http.MethodPost,
		fmt.Sprintf("/api/shopping-lists/%s/shopping-items/", listID),
		map[string]any{"name": name, "purchased": purchased},
	)
	rr := f.do(req, userID)
	testutil.AssertStatus(f.t, rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[itemResp](f.t, rr)
}

func listPath(listID string) string {
	return fmt.Sprintf("/api/shopping-lists/%s/", listID)
}

func itemPath(listID, itemID string) string {
	return fmt.Sprintf("/api/shopping-lists/%s/shopping-items/%s/", listID, itemID)
}

func TestCreateList(t *testing.T) {
	f := newFixture(t)

	list := f.createList(f.owner, "Groceries")
	assert.Equal(t, "Groceries", list.Name)
	assert.Equal(t, []string{f.owner.String()}, list.Members)
}

func TestCreateListMissingName(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/shopping-lists/", map[string]string{})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateListMalformedBody(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/shopping-lists/", "{not json")
	rr := f.do(req, f.owner)
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestListsOnlyShowMemberships(t *testing.T) {
	f := newFixture(t)
	mine := f.createList(f.owner, "Mine")
	f.createList(f.other, "Theirs")

	rr := f.do(testutil.NewRequest(t, http.MethodGet, "/api/shopping-lists/"), f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	env := testutil.UnmarshalResponse[envelope](t, rr)
	assert.Equal(t, 1, env.Count)

	var results []listResp
	require.NoError(t, json.Unmarshal(env.Results, &results))
	require.Len(t, results, 1)
	assert.Equal(t, mine.ID, results[0].ID)
}

func TestListsAdminSeesEverything(t *testing.T) {
	f := newFixture(t)
	f.createList(f.owner, "Mine")
	f.createList(f.other, "Theirs")

	rr := f.doAsAdmin(testutil.NewRequest(t, http.MethodGet, "/api/shopping-lists/"))
	env := testutil.UnmarshalResponse[envelope](t, rr)
	assert.Equal(t, 2, env.Count)
}

func TestListsOrderedByRecency(t *testing.T) {
	f := newFixture(t)
	first := f.createList(f.owner, "First")
	f.now = f.now.Add(time.Minute)
	second := f.createList(f.owner, "Second")

	rr := f.do(testutil.NewRequest(t, http.MethodGet, "/api/shopping-lists/"), f.owner)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	var results []listResp
	require.NoError(t, json.Unmarshal(env.Results, &results))
	require.Len(t, results, 2)
	assert.Equal(t, second.ID, results[0].ID)

	// Any item write bumps its list back to the front.
	f.now = f.now.Add(time.Minute)
	f.createItem(f.owner, first.ID, "Milk", false)

	rr = f.do(testutil.NewRequest(t, http.MethodGet, "/api/shopping-lists/"), f.owner)
	env = testutil.UnmarshalResponse[envelope](t, rr)
	require.NoError(t, json.Unmarshal(env.Results, &results))
	assert.Equal(t, first.ID, results[0].ID)
}

func TestListsPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.createList(f.owner, fmt.Sprintf("List %02d", i))
	}

	rr := f.do(testutil.NewRequest(t, http.MethodGet, "/api/shopping-lists/"), f.owner)
	env := testutil.UnmarshalResponse[envelope](t, rr)
	assert.Equal(t, 25, env.Count)
	require.NotNil(t, env.Next)
	assert.Nil(t, env.Previous)

	var results []listResp
	require.NoError(t, json.Unmarshal(env.Results, &results))
	assert.Len(t, results, 20)

	rr = f.do(testutil.NewRequest(t, http.MethodGet, "/api/shopping-lists/?page=2"), f.owner)
	env = testutil.UnmarshalResponse[envelope](t, rr)
	require.NoError(t, json.Unmarshal(env.Results, &results))
	assert.Len(t, results, 5)
	assert.Nil(t, env.Next)
	require.NotNil(t, env.Previous)
}

func TestGetListDetailPreview(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	for _, name := range []string{"Apples", "Bananas", "Coconut", "Dates"} {
		f.createItem(f.owner, list.ID, name, false)
	}
	f.createItem(f.owner, list.ID, "Eggs", true)

	rr := f.do(testutil.NewRequest(t, http.MethodGet, listPath(list.ID)), f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	detail := testutil.UnmarshalResponse[listResp](t, rr)
	require.Len(t, detail.Unpurchased, 3, "preview is capped")
	assert.Equal(t, "Apples", detail.Unpurchased[0].Name)
	assert.Equal(t, "Bananas", detail.Unpurchased[1].Name)
	assert.Equal(t, "Coconut", detail.Unpurchased[2].Name)
}

func TestGetListForbiddenForNonMember(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	rr := f.do(testutil.NewRequest(t, http.MethodGet, listPath(list.ID)), f.other)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	rr = f.doAsAdmin(testutil.NewRequest(t, http.MethodGet, listPath(list.ID)))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestGetListNotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(testutil.NewRequest(t, http.MethodGet, listPath(id.NewListID().String())), f.owner)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = f.do(testutil.NewRequest(t, http.MethodGet, listPath("not-a-uuid")), f.owner)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestUpdateListFullRequiresName(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPut, listPath(list.ID), map[string]string{})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestUpdateListPartialWithoutName(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPatch, listPath(list.ID), map[string]string{})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	updated := testutil.UnmarshalResponse[listResp](t, rr)
	assert.Equal(t, "Groceries", updated.Name)
}

func TestUpdateListRename(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPut, listPath(list.ID), map[string]string{"name": "Weekly shop"})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	updated := testutil.UnmarshalResponse[listResp](t, rr)
	assert.Equal(t, "Weekly shop", updated.Name)
}

func TestDeleteList(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	rr := f.do(testutil.NewRequest(t, http.MethodDelete, listPath(list.ID)), f.other)
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	rr = f.do(testutil.NewRequest(t, http.MethodDelete, listPath(list.ID)), f.owner)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = f.do(testutil.NewRequest(t, http.MethodGet, listPath(list.ID)), f.owner)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestAddMembers(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPut, listPath(list.ID)+"add-members/",
		map[string][]string{"members": {f.other.String()}})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	updated := testutil.UnmarshalResponse[listResp](t, rr)
	assert.ElementsMatch(t, []string{f.owner.String(), f.other.String()}, updated.Members)

	// The new member can now read the list.
	rr = f.do(testutil.NewRequest(t, http.MethodGet, listPath(list.ID)), f.other)
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestAddMembersUnknownUser(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPut, listPath(list.ID)+"add-members/",
		map[string][]string{"members": {f.other.String(), id.NewUserID().String()}})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	// Whole batch rejected: the known user was not added either.
	rr = f.do(testutil.NewRequest(t, http.MethodGet, listPath(list.ID)), f.owner)
	detail := testutil.UnmarshalResponse[listResp](t, rr)
	assert.Equal(t, []string{f.owner.String()}, detail.Members)
}

func TestAddMembersMalformedID(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPut, listPath(list.ID)+"add-members/",
		map[string][]string{"members": {"777"}})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestRemoveMembersIdempotent(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	// Removing a user who was never a member still succeeds.
	req := testutil.NewJSONRequest(t, http.MethodPut, listPath(list.ID)+"remove-members/",
		map[string][]string{"members": {f.other.String()}})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	updated := testutil.UnmarshalResponse[listResp](t, rr)
	assert.Equal(t, []string{f.owner.String()}, updated.Members)
}

func TestCreateItem(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	item := f.createItem(f.owner, list.ID, "Milk", false)
	assert.Equal(t, "Milk", item.Name)
	assert.False(t, item.Purchased)
}

func TestCreateItemDefaultsUnpurchased(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPost,
		listPath(list.ID)+"shopping-items/", map[string]string{"name": "Milk"})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	item := testutil.UnmarshalResponse[itemResp](t, rr)
	assert.False(t, item.Purchased)
}

func TestCreateItemMissingName(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPost,
		listPath(list.ID)+"shopping-items/", map[string]bool{"purchased": true})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateItemDuplicateName(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	f.createItem(f.owner, list.ID, "Milk", false)

	req := testutil.NewJSONRequest(t, http.MethodPost,
		listPath(list.ID)+"shopping-items/", map[string]any{"name": "Milk", "purchased": true})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateItemNotMember(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	req := testutil.NewJSONRequest(t, http.MethodPost,
		listPath(list.ID)+"shopping-items/", map[string]any{"name": "Milk", "purchased": false})
	rr := f.do(req, f.other)
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestItemsOrdering(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	f.createItem(f.owner, list.ID, "Apples", false)
	f.createItem(f.owner, list.ID, "Bananas", true)
	f.createItem(f.owner, list.ID, "Coconut", true)
	f.createItem(f.owner, list.ID, "Dates", false)

	rr := f.do(testutil.NewRequest(t, http.MethodGet,
		listPath(list.ID)+"shopping-items/?ordering=purchased,name"), f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	env := testutil.UnmarshalResponse[envelope](t, rr)
	var results []itemResp
	require.NoError(t, json.Unmarshal(env.Results, &results))
	got := make([]string, len(results))
	for i, item := range results {
		got[i] = item.Name
	}
	assert.Equal(t, []string{"Apples", "Dates", "Bananas", "Coconut"}, got)
}

// A misspelled ordering field is ignored instead of failing the request.
func TestItemsOrderingUnknownField(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	f.createItem(f.owner, list.ID, "Coconut", true)
	f.createItem(f.owner, list.ID, "Apples", false)
	f.createItem(f.owner, list.ID, "Dates", false)

	rr := f.do(testutil.NewRequest(t, http.MethodGet,
		listPath(list.ID)+"shopping-items/?ordering=purchased,names"), f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	env := testutil.UnmarshalResponse[envelope](t, rr)
	var results []itemResp
	require.NoError(t, json.Unmarshal(env.Results, &results))
	got := make([]string, len(results))
	for i, item := range results {
		got[i] = item.Name
	}
	assert.Equal(t, []string{"Apples", "Dates", "Coconut"}, got)
}

func TestGetItem(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	item := f.createItem(f.owner, list.ID, "Milk", false)

	rr := f.do(testutil.NewRequest(t, http.MethodGet, itemPath(list.ID, item.ID)), f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	got := testutil.UnmarshalResponse[itemResp](t, rr)
	assert.Equal(t, "Milk", got.Name)
}

func TestGetItemNotFound(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")

	rr := f.do(testutil.NewRequest(t, http.MethodGet,
		itemPath(list.ID, id.NewItemID().String())), f.owner)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestUpdateItemFullRequiresName(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	item := f.createItem(f.owner, list.ID, "Milk", false)

	req := testutil.NewJSONRequest(t, http.MethodPut, itemPath(list.ID, item.ID),
		map[string]bool{"purchased": true})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestUpdateItemPartial(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	item := f.createItem(f.owner, list.ID, "Milk", false)

	req := testutil.NewJSONRequest(t, http.MethodPatch, itemPath(list.ID, item.ID),
		map[string]bool{"purchased": true})
	rr := f.do(req, f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	updated := testutil.UnmarshalResponse[itemResp](t, rr)
	assert.Equal(t, "Milk", updated.Name)
	assert.True(t, updated.Purchased)
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	list := f.createList(f.owner, "Groceries")
	item := f.createItem(f.owner, list.ID, "Milk", false)

	rr := f.do(testutil.NewRequest(t, http.MethodDelete, itemPath(list.ID, item.ID)), f.owner)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = f.do(testutil.NewRequest(t, http.MethodGet, itemPath(list.ID, item.ID)), f.owner)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestSearchItems(t *testing.T) {
	f := newFixture(t)
	mine := f.createList(f.owner, "Mine")
	theirs := f.createList(f.other, "Theirs")
	f.createItem(f.owner, mine.ID, "Whole Milk", false)
	f.createItem(f.owner, mine.ID, "Bread", false)
	f.createItem(f.other, theirs.ID, "Oat Milk", false)

	rr := f.do(testutil.NewRequest(t, http.MethodGet, "/api/search-shopping-items/?search=MILK"), f.owner)
	testutil.AssertStatus(t, rr, http.StatusOK)

	env := testutil.UnmarshalResponse[envelope](t, rr)
	var results []searchResp
	require.NoError(t, json.Unmarshal(env.Results, &results))
	require.Len(t, results, 1, "other users' lists stay hidden")
	assert.Equal(t, "Whole Milk", results[0].Name)
	assert.Equal(t, mine.ID, results[0].ListID)
}

func TestSearchItemsAdminSeesEverything(t *testing.T) {
	f := newFixture(t)
	mine := f.createList(f.owner, "Mine")
	theirs := f.createList(f.other, "Theirs")
	f.createItem(f.owner, mine.ID, "Whole Milk", false)
	f.createItem(f.other, theirs.ID, "Oat Milk", false)

	rr := f.doAsAdmin(testutil.NewRequest(t, http.MethodGet, "/api/search-shopping-items/?search=milk"))
	env := testutil.UnmarshalResponse[envelope](t, rr)
	assert.Equal(t, 2, env.Count)
}
