package core

import "errors"

// Roles assignable to portal users.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an authenticated principal returned to handlers.
type User struct {
	ID       int64
	Username string
	Role     string
}

var (
	// ErrInvalidCredentials is returned when username/password is wrong.
	// Unknown usernames and bad passwords share this error so the response
	// gives no enumeration signal.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService defines authentication behaviour.
type AuthService interface {
	Authenticate(username, password string) (User, error)
}
