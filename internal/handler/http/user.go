package http

import (
	"log/slog"
	"net/http"

	"github.com/sefavnl/giris-ve-kayit/internal/service"
	apperrors "github.com/sefavnl/giris-ve-kayit/pkg/errors"
	"github.com/sefavnl/giris-ve-kayit/pkg/middleware"
)

// UserHandler serves the authenticated user endpoints.
type UserHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewUserHandler creates the user handler.
func NewUserHandler(svc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Me handles GET /api/v1/users/me, returning the authenticated user's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, r, h.logger, apperrors.Unauthorized("could not validate credentials"))
		return
	}

	user, err := h.svc.UserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
