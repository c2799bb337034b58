package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/shared"
)

// Repository defines persistence operations for the accounts module.
type Repository interface {
	CreateWithOwner(ctx context.Context, name, userID, role string) (int64, error)
	ListMembers(ctx context.Context, accountID int64) ([]Membership, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateWithOwner inserts the account row and the owner membership in one
// transaction so a half-created account never exists.
func (r *PGRepository) CreateWithOwner(ctx context.Context, name, userID, role string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var accountID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO accounts (name) VALUES ($1) RETURNING id`, name).Scan(&accountID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO user_accounts (user_id, account_id, role) VALUES ($1, $2, $3)`,
		userID, accountID, role); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return accountID, nil
}

// ListMembers returns the memberships of an account, or ErrNotFound when the
// account itself does not exist.
func (r *PGRepository) ListMembers(ctx context.Context, accountID int64) ([]Membership, error) {
	var exists int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM accounts WHERE id = $1`, accountID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT user_id, account_id, role FROM user_accounts WHERE account_id = $1 ORDER BY user_id`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Membership{}
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.UserID, &m.AccountID, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

var _ Repository = (*PGRepository)(nil)
