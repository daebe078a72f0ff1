package services

import (
	"context"
	"testing"
	"time"

	"github.com/selfmap/selfmap-backend/internal/store"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  string // empty means valid
	}{
		{"valid", "ada@example.com", "Password1", ""},
		{"missing email", "", "Password1", "email"},
		{"bad email", "not-an-email", "Password1", "email"},
		{"short password", "ada@example.com", "Pw1", "password"},
		{"no uppercase", "ada@example.com", "password1", "password"},
		{"no digit", "ada@example.com", "Passwordd", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRegistration(tt.email, tt.password)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Status != 400 {
				t.Errorf("expected 400, got %d", err.Status)
			}
			if _, ok := err.Details[tt.wantErr]; !ok {
				t.Errorf("expected detail for field %q, got %v", tt.wantErr, err.Details)
			}
		})
	}
}

func TestUniqueUsernameSuffixes(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{"id": "u1", "username": "ada"})
	st.seed(store.TableUsers, map[string]any{"id": "u2", "username": "ada1"})

	got, err := uniqueUsername(context.Background(), st, "ada@example.com")
	if err != nil {
		t.Fatalf("uniqueUsername: %v", err)
	}
	if got != "ada2" {
		t.Errorf("expected ada2, got %q", got)
	}
}

func TestFirstNameFromMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     string
	}{
		{"nil", nil, ""},
		{"first_name", map[string]any{"first_name": "Ada"}, "Ada"},
		{"full_name", map[string]any{"full_name": "Ada Lovelace"}, "Ada"},
		{"name fallback", map[string]any{"name": "Grace Hopper"}, "Grace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstNameFromMetadata(tt.metadata); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalAuthRegisterLoginVerify(t *testing.T) {
	st := newFakeStore()
	auth := NewLocalAuthService(st, "test-secret", time.Hour, testLogger(t))
	ctx := context.Background()

	result, err := auth.Register(ctx, "Ada", "ada@example.com", "Password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if _, ok := result.User["password_hash"]; ok {
		t.Error("password_hash must not appear in auth responses")
	}
	if result.User["username"] != "ada" {
		t.Errorf("expected derived username ada, got %v", result.User["username"])
	}

	// Login by email and by username.
	for _, identifier := range []string{"ada@example.com", "ada"} {
		login, err := auth.Login(ctx, identifier, "Password1")
		if err != nil {
			t.Fatalf("login with %q: %v", identifier, err)
		}
		identity, err := auth.Verify(ctx, login.AccessToken)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if identity.Email != "ada@example.com" {
			t.Errorf("expected email claim, got %q", identity.Email)
		}
	}
}

func TestLocalAuthRejectsBadCredentials(t *testing.T) {
	st := newFakeStore()
	auth := NewLocalAuthService(st, "test-secret", time.Hour, testLogger(t))
	ctx := context.Background()

	if _, err := auth.Register(ctx, "Ada", "ada@example.com", "Password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := auth.Login(ctx, "ada@example.com", "WrongPassword1")
	assertStatus(t, err, 401, "invalid_credentials")

	_, err = auth.Login(ctx, "nobody@example.com", "Password1")
	assertStatus(t, err, 401, "invalid_credentials")
}

func TestLocalAuthDuplicateEmail(t *testing.T) {
	st := newFakeStore()
	auth := NewLocalAuthService(st, "test-secret", time.Hour, testLogger(t))
	ctx := context.Background()

	if _, err := auth.Register(ctx, "Ada", "ada@example.com", "Password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := auth.Register(ctx, "Ada", "ada@example.com", "Password1")
	assertStatus(t, err, 400, "validation_failed")
}

func TestLocalAuthRefreshUnsupported(t *testing.T) {
	auth := NewLocalAuthService(newFakeStore(), "test-secret", time.Hour, testLogger(t))
	_, err := auth.Refresh(context.Background(), "whatever")
	assertStatus(t, err, 400, "refresh_not_supported")
}

func TestLocalAuthVerifyRejectsGarbage(t *testing.T) {
	auth := NewLocalAuthService(newFakeStore(), "test-secret", time.Hour, testLogger(t))
	_, err := auth.Verify(context.Background(), "not-a-jwt")
	assertStatus(t, err, 401, "invalid_token")
}
