// Package accounts persists the accounts and user_accounts tables: every
// successful signup creates one account owned by the new user.
package accounts

import "time"

// Account is a named tenant record.
type Account struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Membership relates a user to an account with a per-account role.
type Membership struct {
	UserID    string `json:"user_id"`
	AccountID int64  `json:"account_id"`
	Role      string `json:"role"`
}

// OwnerRole is the per-account role given to the creating user.
const OwnerRole = "admin"
