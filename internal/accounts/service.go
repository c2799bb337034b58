package accounts

import (
	"context"
	"fmt"
	"strings"
)

// Service handles account business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateAccount creates an account owned by userID and returns its ID.
func (s *Service) CreateAccount(ctx context.Context, userID, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("accounts: name required")
	}
	return s.repo.CreateWithOwner(ctx, name, userID, OwnerRole)
}

// CreateDefaultAccount is the signup side effect: one account named after the
// new user, owned by them.
func (s *Service) CreateDefaultAccount(ctx context.Context, userID, name string) error {
	_, err := s.CreateAccount(ctx, userID, name)
	return err
}

// Members lists the memberships of an account.
func (s *Service) Members(ctx context.Context, accountID int64) ([]Membership, error) {
	return s.repo.ListMembers(ctx, accountID)
}
