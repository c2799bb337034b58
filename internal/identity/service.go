package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
)

// Service wraps identity business rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
	fold   cases.Caser
}

// NewService constructs a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, fold: cases.Fold()}
}

// NormalizeEmail trims and case-folds an email address so lookups and the
// bootstrap comparison are case-insensitive.
func (s *Service) NormalizeEmail(email string) string {
	return s.fold.String(strings.TrimSpace(email))
}

// SignUp registers a new identity and reports the outcome as a variant.
func (s *Service) SignUp(ctx context.Context, email, password string) SignUpResult {
	email = s.NormalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("hash password", slog.Any("error", err))
		}
		return SignUpResult{Status: SignUpUnavailable}
	}
	user := &User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user, string(hash)); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return SignUpResult{Status: SignUpEmailExists}
		}
		if s.logger != nil {
			s.logger.Error("create identity", slog.Any("error", err))
		}
		return SignUpResult{Status: SignUpUnavailable}
	}
	return SignUpResult{Status: SignUpOK, User: user}
}

// SignIn validates email/password credentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, error) {
	user, hash, err := s.repo.FindByEmail(ctx, s.NormalizeEmail(email))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// ListUsers iterates the directory with opaque cursor tokens. It satisfies
// the roles.Directory contract used by the reconciliation sweep and the
// admin listing.
func (s *Service) ListUsers(ctx context.Context, cursor string, limit int) (roles.UserPage, error) {
	limit = shared.ClampLimit(limit)
	users, err := s.repo.List(ctx, shared.DecodeCursor(cursor), limit+1)
	if err != nil {
		return roles.UserPage{}, err
	}
	page := roles.UserPage{}
	if len(users) > limit {
		users = users[:limit]
		page.NextCursor = shared.EncodeCursor(users[limit-1].ID)
	}
	page.Users = make([]roles.UserRef, 0, len(users))
	for _, user := range users {
		page.Users = append(page.Users, roles.UserRef{ID: user.ID, Email: user.Email})
	}
	return page, nil
}

var _ roles.Directory = (*Service)(nil)
