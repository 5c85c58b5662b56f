package testutil

import (
	"net/http"
	"time"

	id "basket/pkg/domain"
	"basket/pkg/requestcontext"
)

// AsUser stamps the request context the way the auth middleware would for an
// authenticated principal.
func AsUser(req *http.Request, userID id.UserID) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

// AsAdmin stamps the request context as an authenticated administrator.
func AsAdmin(req *http.Request, userID id.UserID) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithAdmin(ctx, true)
	return req.WithContext(ctx)
}

// AtTime pins the request clock, the way the request-time middleware does.
func AtTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
