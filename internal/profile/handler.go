package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler serves the current-user projection.
type Handler struct {
	service *Service
	mw      *roles.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(service *Service, mw *roles.Middleware) *Handler {
	return &Handler{service: service, mw: mw}
}

// MountRoutes registers the profile route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireSession)
		r.Get("/api/me", h.getMe)
	})
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, h.service.GetProfile(r.Context(), userID))
}
