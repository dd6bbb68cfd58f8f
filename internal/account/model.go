package account

import "errors"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRole        = errors.New("role must be admin or user")
	ErrInvalidUsername    = errors.New("username must not be blank")
	ErrWeakPassword       = errors.New("password is too short")
	ErrLastAdmin          = errors.New("cannot remove the last admin")
)

// Account is an operator allowed to use the tool.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	TokenVersion int
}

// IsAdmin reports whether the account may import and manage accounts.
func (a Account) IsAdmin() bool { return a.Role == RoleAdmin }

// CreateInput carries the fields needed to register an account.
type CreateInput struct {
	Username string
	Password string
	Role     string
}

// UpdateInput edits an account. Empty fields are left unchanged.
type UpdateInput struct {
	Username string
	Password string
	Role     string
}
