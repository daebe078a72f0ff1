package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/store"
)

// Identity is the verified caller of an authenticated request.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Token  string
	// Metadata carries provider user_metadata when the hosted backend
	// verified the token; the provisioner mines it for a display name.
	Metadata map[string]any
}

type AuthResult struct {
	User        map[string]any
	AccessToken string
	// RefreshToken is only set by the hosted backend.
	RefreshToken string
}

// AuthService has one implementation per auth backend, selected at
// startup.
type AuthService interface {
	Register(ctx context.Context, firstName, email, password string) (*AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Verify(ctx context.Context, token string) (*Identity, error)
	Logout(ctx context.Context, token string) error
}

// SanitizeUser strips internal fields from a user row before it goes
// to a client.
func SanitizeUser(row map[string]any) map[string]any {
	if row == nil {
		return nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		if k == "password_hash" {
			continue
		}
		out[k] = v
	}
	return out
}

func validateRegistration(email, password string) *apierr.Error {
	if email == "" {
		return apierr.Validation(fmt.Errorf("email is required"), map[string]string{"email": "Email is required"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apierr.Validation(fmt.Errorf("invalid email"), map[string]string{"email": "Not a valid email address"})
	}
	if len(password) < 8 {
		return apierr.Validation(fmt.Errorf("weak password"), map[string]string{"password": "Password must be at least 8 characters long"})
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return apierr.Validation(fmt.Errorf("weak password"), map[string]string{"password": "Password must contain uppercase, lowercase, and numeric characters"})
	}
	return nil
}

func errDuplicateEmail() *apierr.Error {
	return apierr.Validation(fmt.Errorf("email already exists"), map[string]string{"email": "Email already exists"})
}

func errInvalidCredentials() *apierr.Error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid email or password"))
}

// uniqueUsername derives a username from the email prefix (or a
// provider-supplied base) and suffixes a counter until it is free.
func uniqueUsername(ctx context.Context, st store.Store, base string) (string, error) {
	base = strings.TrimSpace(base)
	if i := strings.Index(base, "@"); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "user"
	}
	username := base
	for counter := 1; ; counter++ {
		rows, err := st.GetAll(ctx, store.TableUsers, map[string]any{"username": username})
		if err != nil {
			return "", err
		}
		if len(rows) == 0 {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomPassword fills the local password column for shadow users; it
// is never used to log in.
func randomPassword() string {
	var b strings.Builder
	for i := 0; i < 16; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			n = big.NewInt(int64(i % len(passwordAlphabet)))
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String()
}

// firstNameFromMetadata tries first_name, then the first word of
// full_name or name (common OAuth fields).
func firstNameFromMetadata(metadata map[string]any) string {
	if metadata == nil {
		return ""
	}
	if s, ok := metadata["first_name"].(string); ok && s != "" {
		return s
	}
	for _, key := range []string{"full_name", "name"} {
		if s, ok := metadata[key].(string); ok && s != "" {
			return strings.Fields(s)[0]
		}
	}
	return ""
}
