package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/platform/supabase"
	"github.com/selfmap/selfmap-backend/internal/store"
)

type supabaseAuthService struct {
	store  store.Store
	client *supabase.AuthClient
	log    *logger.Logger
	// jwtSecret enables local HS256 verification of provider tokens;
	// when empty every Verify round-trips to the provider.
	jwtSecret []byte
}

// NewSupabaseAuthService delegates credentials to the hosted GoTrue
// service. Local user rows are reconciled lazily by the provisioner on
// authenticated requests.
func NewSupabaseAuthService(st store.Store, client *supabase.AuthClient, jwtSecret string, log *logger.Logger) AuthService {
	var secret []byte
	if jwtSecret != "" {
		secret = []byte(jwtSecret)
	}
	return &supabaseAuthService{
		store:     st,
		client:    client,
		log:       log.With("service", "SupabaseAuthService"),
		jwtSecret: secret,
	}
}

func (s *supabaseAuthService) Register(ctx context.Context, firstName, email, password string) (*AuthResult, error) {
	if aerr := validateRegistration(email, password); aerr != nil {
		return nil, aerr
	}
	existing, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"email": email})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if len(existing) > 0 {
		return nil, errDuplicateEmail()
	}

	session, err := s.client.SignUp(ctx, email, password, map[string]any{"first_name": firstName})
	if err != nil {
		return nil, s.translate(err)
	}
	if session.User == nil {
		return nil, apierr.Internal(fmt.Errorf("provider returned no user on signup"))
	}

	user := map[string]any{
		"id":         session.User.ID,
		"email":      session.User.Email,
		"first_name": firstName,
	}
	if session.AccessToken == "" {
		// Email confirmation pending; no session yet.
		user["confirmation_required"] = true
	}
	return &AuthResult{
		User:         user,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

func (s *supabaseAuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	email := identifier
	if !strings.Contains(identifier, "@") {
		// Identifier is a username; resolve it to an email first.
		rows, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"username": identifier})
		if err == nil && len(rows) > 0 {
			email = rowString(rows[0], "email")
		}
	}

	session, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, s.translate(err)
	}
	if session.User == nil || session.AccessToken == "" {
		return nil, errInvalidCredentials()
	}
	return &AuthResult{
		User:         s.localProfile(ctx, session.User),
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

func (s *supabaseAuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	session, err := s.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, s.translate(err)
	}
	if session.AccessToken == "" {
		return nil, apierr.Unauthorized("invalid_refresh_token", fmt.Errorf("refresh rejected by provider"))
	}
	var user map[string]any
	if session.User != nil {
		user = s.localProfile(ctx, session.User)
	}
	return &AuthResult{
		User:         user,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

func (s *supabaseAuthService) Verify(ctx context.Context, token string) (*Identity, error) {
	if len(s.jwtSecret) > 0 {
		if identity, err := s.verifyLocal(token); err == nil {
			return identity, nil
		}
		// Fall through to the provider; the token may be signed with a
		// rotated secret.
	}
	user, err := s.client.GetUser(ctx, token)
	if err != nil {
		return nil, s.translate(err)
	}
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, apierr.Unauthorized("invalid_token", fmt.Errorf("malformed provider user id"))
	}
	return &Identity{UserID: userID, Email: user.Email, Token: token, Metadata: user.UserMetadata}, nil
}

func (s *supabaseAuthService) Logout(ctx context.Context, token string) error {
	if err := s.client.SignOut(ctx, token); err != nil {
		s.log.Warn("Provider sign-out failed", "error", err)
	}
	return nil
}

// verifyLocal checks the provider JWT with the shared secret, saving a
// network round trip per request.
func (s *supabaseAuthService) verifyLocal(token string) (*Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("local verification failed: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("malformed claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("malformed subject claim")
	}
	email, _ := claims["email"].(string)
	metadata, _ := claims["user_metadata"].(map[string]any)
	return &Identity{UserID: userID, Email: email, Token: token, Metadata: metadata}, nil
}

// localProfile prefers the reconciled local row over the provider's
// minimal user object.
func (s *supabaseAuthService) localProfile(ctx context.Context, user *supabase.AuthUser) map[string]any {
	row, err := s.store.GetByID(ctx, store.TableUsers, user.ID)
	if err == nil && row != nil {
		return SanitizeUser(row)
	}
	return map[string]any{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": firstNameFromMetadata(user.UserMetadata),
	}
}

// translate maps provider errors onto the API error taxonomy:
// credential rejections are 401, everything else means the provider is
// unreachable or broken.
func (s *supabaseAuthService) translate(err error) *apierr.Error {
	var serr *supabase.Error
	if errors.As(err, &serr) {
		switch {
		case serr.Status == http.StatusBadRequest && strings.Contains(strings.ToLower(serr.Message), "invalid login credentials"):
			return errInvalidCredentials()
		case serr.Status == http.StatusUnauthorized, serr.Status == http.StatusForbidden:
			return apierr.Unauthorized("invalid_token", serr)
		case serr.Status == http.StatusUnprocessableEntity, serr.Status == http.StatusBadRequest:
			return apierr.New(http.StatusBadRequest, "auth_rejected", serr)
		case serr.Status == http.StatusTooManyRequests:
			return apierr.New(http.StatusTooManyRequests, "rate_limited", serr)
		}
	}
	s.log.Error("Auth provider unavailable", "error", err)
	return apierr.New(http.StatusServiceUnavailable, "auth_unavailable", fmt.Errorf("authentication service temporarily unavailable"))
}
