package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"basket/internal/auth/models"
	"basket/internal/platform/middleware"
	"basket/internal/transport/http/shared"
	dErrors "basket/pkg/domain-errors"
	"basket/pkg/requestcontext"
)

// Service defines the interface for token operations.
type Service interface {
	ObtainToken(ctx context.Context, username, password string) (string, *models.User, error)
	RevokeToken(ctx context.Context, jti string) error
}

// Handler exposes token issuance and revocation.
type Handler struct {
	auth        Service
	logger      *slog.Logger
	validator   middleware.TokenValidator
	revocations middleware.RevocationChecker
}

func New(auth Service, validator middleware.TokenValidator, revocations middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		auth:        auth,
		logger:      logger,
		validator:   validator,
		revocations: revocations,
	}
}

// Register mounts the token routes. Issuance is unauthenticated; revocation
// requires the token being revoked.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api-token-auth/", h.handleObtainToken)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.revocations, h.logger))
		r.Post("/api-token-auth/revoke/", h.handleRevokeToken)
	})
}

type obtainTokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleObtainToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req obtainTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, _, err := h.auth.ObtainToken(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "token issuance refused",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.auth.RevokeToken(ctx, requestcontext.TokenID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "token revocation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
