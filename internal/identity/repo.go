package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/shared"
)

// ErrEmailExists is returned by Create when the email is already registered.
var ErrEmailExists = errors.New("identity: email already registered")

// Repository defines persistence operations for the identity module.
type Repository interface {
	Create(ctx context.Context, user *User, passwordHash string) error
	FindByEmail(ctx context.Context, email string) (*User, string, error)
	FindByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, afterID string, limit int) ([]User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new identity row.
func (r *PGRepository) Create(ctx context.Context, user *User, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO identities (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, passwordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// FindByEmail fetches a user and password hash by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, string, error) {
	var user User
	var hash string
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM identities WHERE email = $1`,
		email).Scan(&user.ID, &user.Email, &hash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", shared.ErrNotFound
		}
		return nil, "", err
	}
	return &user, hash, nil
}

// FindByID fetches a user by ID.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, created_at FROM identities WHERE id = $1`,
		id).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns up to limit users with IDs greater than afterID, ordered by
// ID. Keyset pagination keeps the sweep resumable at any page boundary.
func (r *PGRepository) List(ctx context.Context, afterID string, limit int) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, created_at FROM identities WHERE id > $1 ORDER BY id LIMIT $2`,
		afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

var _ Repository = (*PGRepository)(nil)
