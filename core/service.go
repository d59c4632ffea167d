package core

import (
	"errors"
	"strings"
)

// CredentialAuthService authenticates against a CredentialStore using the
// injected PasswordHasher.
type CredentialAuthService struct {
	store  CredentialStore
	hasher PasswordHasher
}

func NewCredentialAuthService(store CredentialStore, hasher PasswordHasher) *CredentialAuthService {
	return &CredentialAuthService{store: store, hasher: hasher}
}

// Authenticate verifies username/password. Unknown users and wrong passwords
// both return ErrInvalidCredentials. The lookup short-circuits before any
// hash work for unknown usernames; callers must not expose the difference.
func (s *CredentialAuthService) Authenticate(username, password string) (User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.store.Lookup(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}

	return User{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}, nil
}
