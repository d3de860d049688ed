package users

import (
	"context"
	"strings"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if u.PasswordHash == "" || strings.Contains(u.PasswordHash, "s3cret-pass") {
		t.Fatalf("password must be stored hashed, got %q", u.PasswordHash)
	}
	if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", u.PasswordHash)
	}

	got, err := svc.Authenticate(ctx, "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated wrong user: %s", got.ID)
	}
}

func TestAuthenticateRejectsBadPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	if _, err := svc.Register(ctx, "bob", "bob@example.com", "correct"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bob@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "whatever"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	if _, err := svc.Register(ctx, "carol", "carol@example.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "carol", "other@example.com", "pw"); err != ErrUserExists {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}
	if _, err := svc.Register(ctx, "other", "carol@example.com", "pw"); err != ErrUserExists {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestLookupAndList(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	u, err := svc.Register(ctx, "dave", "dave@example.com", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	byID, err := svc.GetByID(ctx, u.ID)
	if err != nil || byID == nil || byID.Username != "dave" {
		t.Fatalf("GetByID: %+v err=%v", byID, err)
	}
	byName, err := svc.GetByUsername(ctx, "dave")
	if err != nil || byName == nil || byName.ID != u.ID {
		t.Fatalf("GetByUsername: %+v err=%v", byName, err)
	}
	missing, err := svc.GetByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown username, got %+v err=%v", missing, err)
	}

	all, err := svc.List(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("List: %d users, err=%v", len(all), err)
	}
}
