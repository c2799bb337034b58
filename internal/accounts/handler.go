package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler manages account endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        *roles.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw *roles.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireSession)
		r.Post("/api/account", h.createAccount)
		r.Get("/api/account/{accountID}/users", h.listAccountUsers)
	})
}

type createAccountRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	accountID, err := h.service.CreateAccount(r.Context(), sess.User(), req.Name)
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"accountId": accountID})
}

func (h *Handler) listAccountUsers(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	members, err := h.service.Members(r.Context(), accountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, members)
}
