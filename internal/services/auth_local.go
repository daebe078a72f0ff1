package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/store"
)

type localAuthService struct {
	store    store.Store
	log      *logger.Logger
	secret   []byte
	tokenTTL time.Duration
}

// NewLocalAuthService authenticates against the users table with
// bcrypt and issues HS256 access tokens. No refresh tokens.
func NewLocalAuthService(st store.Store, secret string, tokenTTL time.Duration, log *logger.Logger) AuthService {
	return &localAuthService{
		store:    st,
		log:      log.With("service", "LocalAuthService"),
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (s *localAuthService) Register(ctx context.Context, firstName, email, password string) (*AuthResult, error) {
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

	username, err := uniqueUsername(ctx, s.store, email)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	userID := uuid.New()
	row, err := s.store.Create(ctx, store.TableUsers, map[string]any{
		"id":            userID,
		"username":      username,
		"email":         email,
		"password_hash": string(hash),
		"first_name":    firstName,
	})
	if err != nil || row == nil {
		return nil, apierr.Internal(fmt.Errorf("user creation failed: %w", err))
	}
	s.log.Info("Registered user", "user_id", userID.String(), "username", username)

	token, err := s.signToken(userID, email)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &AuthResult{User: SanitizeUser(row), AccessToken: token}, nil
}

func (s *localAuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	row, err := s.findUser(ctx, identifier)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if row == nil {
		return nil, errInvalidCredentials()
	}
	if bcrypt.CompareHashAndPassword([]byte(rowString(row, "password_hash")), []byte(password)) != nil {
		return nil, errInvalidCredentials()
	}
	userID, err := uuid.Parse(rowString(row, "id"))
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("malformed user id: %w", err))
	}
	token, err := s.signToken(userID, rowString(row, "email"))
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &AuthResult{User: SanitizeUser(row), AccessToken: token}, nil
}

func (s *localAuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	return nil, apierr.New(http.StatusBadRequest, "refresh_not_supported", fmt.Errorf("refresh tokens are not issued by this auth backend"))
}

func (s *localAuthService) Verify(ctx context.Context, token string) (*Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid or expired token"))
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierr.Unauthorized("invalid_token", fmt.Errorf("malformed claims"))
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apierr.Unauthorized("invalid_token", fmt.Errorf("malformed subject claim"))
	}
	email, _ := claims["email"].(string)
	return &Identity{UserID: userID, Email: email, Token: token}, nil
}

func (s *localAuthService) Logout(ctx context.Context, token string) error {
	// Stateless tokens: nothing to revoke server-side.
	return nil
}

// findUser resolves an identifier that may be an email or a username.
func (s *localAuthService) findUser(ctx context.Context, identifier string) (map[string]any, error) {
	if strings.Contains(identifier, "@") {
		rows, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"email": identifier})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}
	rows, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"username": identifier})
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows[0], nil
	}
	return nil, nil
}

func (s *localAuthService) signToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
