package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-app/atrium/internal/claims"
	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/policy"
	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
)

// AccountCreator performs the account side effect of a successful signup.
// Implemented by the accounts service.
type AccountCreator interface {
	CreateDefaultAccount(ctx context.Context, userID, name string) error
}

// Handler wires HTTP endpoints for the authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	roles     *roles.Service
	accounts  AccountCreator
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. accounts may be nil to skip the
// signup account side effect.
func NewHandler(logger *slog.Logger, service *Service, rolesService *roles.Service, accounts AccountCreator, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		roles:     rolesService,
		accounts:  accounts,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignUp)
	r.Post("/auth/signin", h.handleSignIn)
	r.Post("/auth/signout", h.handleSignOut)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	res := h.service.SignUp(r.Context(), req.Email, req.Password)
	switch res.Status {
	case SignUpEmailExists:
		httpx.Problem(w, http.StatusConflict, "Email Already Registered", "")
		return
	case SignUpUnavailable:
		httpx.Problem(w, http.StatusServiceUnavailable, "Signup Unavailable", "")
		return
	}
	user := res.User

	// Bootstrap assignment and the account side effect must not undo a
	// successful signup; failures are logged and role state stays empty
	// until the next backfill.
	var rolesClaim []string
	if role, err := h.roles.Bootstrap(r.Context(), user.ID, user.Email); err != nil {
		h.logger.Warn("bootstrap roles after signup", slog.String("user_id", user.ID), slog.Any("error", err))
	} else {
		rolesClaim = claims.Project(policy.NewRoleSet(role))
	}
	if h.accounts != nil {
		if err := h.accounts.CreateDefaultAccount(r.Context(), user.ID, accountNameFor(user.Email)); err != nil {
			h.logger.Warn("create default account", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	h.establishSession(r, user.ID, rolesClaim)
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"user":  toUserResponse(user),
		"roles": orEmpty(rolesClaim),
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	user, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	// Legacy accounts created before role tracking get the bootstrap
	// assignment backfilled here. Signin still succeeds when that fails.
	var rolesClaim []string
	if set, err := h.roles.EnsureRoles(r.Context(), user.ID, user.Email); err != nil {
		h.logger.Warn("backfill roles on signin", slog.String("user_id", user.ID), slog.Any("error", err))
	} else {
		rolesClaim = claims.Project(set)
	}

	h.establishSession(r, user.ID, rolesClaim)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(user),
		"roles": orEmpty(rolesClaim),
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) establishSession(r *http.Request, userID string, rolesClaim []string) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during auth", slog.String("user_id", userID))
		return
	}
	sess.SetUser(userID)
	if rolesClaim != nil {
		sess.SetRolesClaim(rolesClaim)
	}
}

func toUserResponse(user *User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func accountNameFor(email string) string {
	if local, _, found := strings.Cut(email, "@"); found && local != "" {
		return local
	}
	return "Default Account"
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
