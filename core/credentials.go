package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UserRecord is the stored projection of a configured user.
// PasswordHash is the only credential material retained after startup.
type UserRecord struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}

// ErrUserNotFound is returned by Lookup for unknown usernames.
var ErrUserNotFound = errors.New("user not found")

// CredentialStore resolves usernames to stored user records.
// Implementations are read-only for the process lifetime.
type CredentialStore interface {
	Lookup(username string) (*UserRecord, error)
}

// StaticCredentialStore holds the fixed user list built at process start.
// Immutable after construction, so concurrent lookups need no locking.
type StaticCredentialStore struct {
	users map[string]*UserRecord
}

// configuredUser is one plaintext entry before hashing.
type configuredUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// NewStaticCredentialStore hashes each configured password once and builds
// the lookup table. The built-in admin/demo users come from cfg; cfg.UsersFile
// may add or replace entries. Plaintext passwords are not retained.
func NewStaticCredentialStore(cfg Config, hasher PasswordHasher) (*StaticCredentialStore, error) {
	configured := []configuredUser{
		{Username: "admin", Password: cfg.AdminPassword, Role: RoleAdmin},
		{Username: "demo", Password: cfg.DemoPassword, Role: RoleUser},
	}

	if cfg.UsersFile != "" {
		extra, err := loadUsersFile(cfg.UsersFile)
		if err != nil {
			return nil, err
		}
		configured = mergeUsers(configured, extra)
	}

	users := make(map[string]*UserRecord, len(configured))
	var nextID int64 = 1
	for _, cu := range configured {
		hash, err := hasher.Hash(cu.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", cu.Username, err)
		}
		users[cu.Username] = &UserRecord{
			ID:           nextID,
			Username:     cu.Username,
			PasswordHash: hash,
			Role:         cu.Role,
		}
		nextID++
	}

	return &StaticCredentialStore{users: users}, nil
}

// Lookup returns the record for username or ErrUserNotFound. Case-sensitive.
func (s *StaticCredentialStore) Lookup(username string) (*UserRecord, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// loadUsersFile parses a YAML file of the form:
//
//	users:
//	  - username: alice
//	    password: secret
//	    role: user
func loadUsersFile(path string) ([]configuredUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file %s: %w", path, err)
	}

	var doc struct {
		Users []configuredUser `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse users file %s: %w", path, err)
	}

	for i, u := range doc.Users {
		if strings.TrimSpace(u.Username) == "" || u.Password == "" {
			return nil, fmt.Errorf("users file %s: entry %d is missing username or password", path, i+1)
		}
		switch u.Role {
		case RoleAdmin, RoleUser:
		case "":
			doc.Users[i].Role = RoleUser
		default:
			return nil, fmt.Errorf("users file %s: entry %d has unknown role %q", path, i+1, u.Role)
		}
	}
	return doc.Users, nil
}

// mergeUsers overlays extra onto base; a matching username replaces the base entry.
func mergeUsers(base, extra []configuredUser) []configuredUser {
	out := make([]configuredUser, len(base))
	copy(out, base)
	for _, e := range extra {
		replaced := false
		for i, b := range out {
			if b.Username == e.Username {
				out[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}
