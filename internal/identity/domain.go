// Package identity owns user accounts and credentials: signup, signin and
// the paginated user directory. Its boundary exposes explicit result variants
// instead of overloaded errors so callers can branch without string matching.
package identity

import "time"

// User is the external identity consumed by the rest of the application.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// SignUpStatus enumerates signup outcomes.
type SignUpStatus int

const (
	// SignUpOK means the account was created.
	SignUpOK SignUpStatus = iota
	// SignUpEmailExists means the email is already registered.
	SignUpEmailExists
	// SignUpUnavailable means the identity store could not complete the
	// request; the caller may retry.
	SignUpUnavailable
)

// SignUpResult is the variant result of a signup attempt. User is set only
// when Status is SignUpOK.
type SignUpResult struct {
	Status SignUpStatus
	User   *User
}
