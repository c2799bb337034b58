package roles

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/policy"
)

// PGStore implements Store on the identity_roles table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL backed role store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// List returns the current role set for a user. Unknown users simply have an
// empty set.
func (st *PGStore) List(ctx context.Context, userID string) (policy.RoleSet, error) {
	rows, err := st.pool.Query(ctx, `SELECT role FROM identity_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := policy.NewRoleSet()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		set[policy.Role(name)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Add grants a role. Granting an already-held role is a no-op.
func (st *PGStore) Add(ctx context.Context, userID string, role policy.Role) error {
	_, err := st.pool.Exec(ctx,
		`INSERT INTO identity_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, string(role))
	return err
}

// Remove revokes a role. Removing an absent role is a no-op.
func (st *PGStore) Remove(ctx context.Context, userID string, role policy.Role) error {
	_, err := st.pool.Exec(ctx,
		`DELETE FROM identity_roles WHERE user_id = $1 AND role = $2`,
		userID, string(role))
	return err
}

var _ Store = (*PGStore)(nil)
