package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/policy"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler exposes the admin role management endpoints and the seed sweep.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	directory Directory
	enqueuer  TaskEnqueuer
	mw        *Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler. enqueuer may be nil; the seed endpoint
// then runs the sweep inline instead of scheduling it.
func NewHandler(logger *slog.Logger, service *Service, directory Directory, enqueuer TaskEnqueuer, mw *Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		directory: directory,
		enqueuer:  enqueuer,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers role routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/admin/users", func(r chi.Router) {
		r.Use(h.mw.RequireSection(policy.SectionAdmin))
		r.Get("/", h.listUsers)
		r.Post("/{userID}/roles", h.grantRole)
		r.Delete("/{userID}/roles/{role}", h.revokeRole)
	})
	// Deliberately sessionless: the sweep backfills users who may not be
	// able to sign in usefully yet.
	r.Post("/api/roles/seed-if-missing", h.seedIfMissing)
}

type adminUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type adminUserList struct {
	Users     []adminUser `json:"users"`
	NextToken string      `json:"nextToken,omitempty"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.directory.ListUsers(r.Context(), r.URL.Query().Get("token"), shared.DefaultPageSize)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := adminUserList{Users: make([]adminUser, 0, len(page.Users)), NextToken: page.NextCursor}
	for _, user := range page.Users {
		set, err := h.service.Roles(r.Context(), user.ID)
		if err != nil {
			h.logger.Error("list user roles", slog.String("user_id", user.ID), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		out.Users = append(out.Users, adminUser{ID: user.ID, Email: user.Email, Roles: set.Names()})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type grantRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) grantRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Grant(r.Context(), userID, policy.Role(req.Role)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondRoles(w, r, userID)
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	role := policy.Role(chi.URLParam(r, "role"))
	if err := h.service.Revoke(r.Context(), userID, role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondRoles(w, r, userID)
}

func (h *Handler) respondRoles(w http.ResponseWriter, r *http.Request, userID string) {
	set, err := h.service.Roles(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"userId": userID, "roles": set.Names()})
}

func (h *Handler) seedIfMissing(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueReconcile(r.Context()); err != nil {
			h.logger.Error("enqueue reconcile", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
		return
	}
	report, err := h.service.Reconcile(r.Context(), "")
	if err != nil {
		h.logger.Error("reconcile sweep", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
