package shared

import "errors"

var (
	// ErrUnauthorized indicates a request without a valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid session with insufficient roles.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRole indicates a role name outside the closed enumeration.
	ErrInvalidRole = errors.New("invalid role")
	// ErrRoleStoreUnavailable indicates the role store could not be reached in time.
	ErrRoleStoreUnavailable = errors.New("role store unavailable")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
