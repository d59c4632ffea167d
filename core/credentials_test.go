package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testHasher() *BcryptHasher {
	// MinCost keeps tests fast; production cost comes from config.
	return NewBcryptHasher(bcrypt.MinCost)
}

func TestStaticCredentialStoreDefaults(t *testing.T) {
	cfg := Config{AdminPassword: "gostar2025", DemoPassword: "demo2025"}
	hasher := testHasher()
	store, err := NewStaticCredentialStore(cfg, hasher)
	if err != nil {
		t.Fatalf("NewStaticCredentialStore error: %v", err)
	}

	admin, err := store.Lookup("admin")
	if err != nil {
		t.Fatalf("Lookup admin error: %v", err)
	}
	if admin.Role != RoleAdmin {
		t.Fatalf("admin role = %q, want %q", admin.Role, RoleAdmin)
	}
	if admin.PasswordHash == "gostar2025" {
		t.Fatal("plaintext password retained as hash")
	}
	if !hasher.Verify("gostar2025", admin.PasswordHash) {
		t.Fatal("stored hash does not verify against configured password")
	}

	demo, err := store.Lookup("demo")
	if err != nil {
		t.Fatalf("Lookup demo error: %v", err)
	}
	if demo.Role != RoleUser {
		t.Fatalf("demo role = %q, want %q", demo.Role, RoleUser)
	}
	if demo.ID == admin.ID {
		t.Fatal("user ids must be unique")
	}
}

func TestStaticCredentialStoreUnknownUser(t *testing.T) {
	store, err := NewStaticCredentialStore(Config{AdminPassword: "a", DemoPassword: "b"}, testHasher())
	if err != nil {
		t.Fatalf("NewStaticCredentialStore error: %v", err)
	}
	if _, err := store.Lookup("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Lookup unknown = %v, want ErrUserNotFound", err)
	}
	// Lookups are case-sensitive.
	if _, err := store.Lookup("Admin"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Lookup Admin = %v, want ErrUserNotFound", err)
	}
}

func TestStaticCredentialStoreUsersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	content := `users:
  - username: alice
    password: wonderland
    role: user
  - username: admin
    password: override
    role: admin
  - username: norole
    password: whatever
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write users file: %v", err)
	}

	cfg := Config{AdminPassword: "gostar2025", DemoPassword: "demo2025", UsersFile: path}
	hasher := testHasher()
	store, err := NewStaticCredentialStore(cfg, hasher)
	if err != nil {
		t.Fatalf("NewStaticCredentialStore error: %v", err)
	}

	alice, err := store.Lookup("alice")
	if err != nil {
		t.Fatalf("Lookup alice error: %v", err)
	}
	if !hasher.Verify("wonderland", alice.PasswordHash) {
		t.Fatal("alice hash does not verify")
	}

	// File entry replaces the built-in admin password.
	admin, err := store.Lookup("admin")
	if err != nil {
		t.Fatalf("Lookup admin error: %v", err)
	}
	if !hasher.Verify("override", admin.PasswordHash) {
		t.Fatal("admin password not overridden by users file")
	}
	if hasher.Verify("gostar2025", admin.PasswordHash) {
		t.Fatal("old admin password still verifies after override")
	}

	// Missing role defaults to user.
	norole, err := store.Lookup("norole")
	if err != nil {
		t.Fatalf("Lookup norole error: %v", err)
	}
	if norole.Role != RoleUser {
		t.Fatalf("norole role = %q, want %q", norole.Role, RoleUser)
	}
}

func TestStaticCredentialStoreUsersFileErrors(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"bad role", "users:\n  - username: x\n    password: y\n    role: superuser\n"},
		{"missing password", "users:\n  - username: x\n"},
		{"not yaml", "{{{{"},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name+".yaml")
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatalf("write %s: %v", tc.name, err)
		}
		cfg := Config{AdminPassword: "a", DemoPassword: "b", UsersFile: path}
		if _, err := NewStaticCredentialStore(cfg, testHasher()); err == nil {
			t.Fatalf("%s: expected error, got nil", tc.name)
		}
	}

	cfg := Config{AdminPassword: "a", DemoPassword: "b", UsersFile: filepath.Join(dir, "missing.yaml")}
	if _, err := NewStaticCredentialStore(cfg, testHasher()); err == nil {
		t.Fatal("missing file: expected error, got nil")
	}
}
