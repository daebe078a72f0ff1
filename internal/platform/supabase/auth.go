package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type AuthUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	User         *AuthUser `json:"user"`
}

type authErrorBody struct {
	Message          string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// AuthClient talks to the GoTrue API under /auth/v1.
type AuthClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     *logger.Logger
}

func NewAuthClient(log *logger.Logger) (*AuthClient, error) {
	baseURL := strings.TrimRight(envutil.String("SUPABASE_URL", ""), "/")
	apiKey := envutil.String("SUPABASE_ANON_KEY", envutil.String("SUPABASE_SERVICE_KEY", ""))
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required")
	}
	return &AuthClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: envutil.Duration("SUPABASE_HTTP_TIMEOUT", 15*time.Second)},
		log:     log.With("client", "SupabaseAuthClient"),
	}, nil
}

func (c *AuthClient) post(ctx context.Context, path string, body any, bearer string, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	c.setHeaders(req, bearer)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *AuthClient) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("apikey", c.apiKey)
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
}

func (c *AuthClient) send(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body authErrorBody
		_ = json.Unmarshal(raw, &body)
		msg := body.Message
		if msg == "" {
			msg = body.ErrorDescription
		}
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// SignUp registers a user. Depending on project settings GoTrue may
// return a full session or just the user record; callers must handle
// an empty AccessToken.
func (c *AuthClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthSession, error) {
	payload := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/v1/signup", payload, "", &raw); err != nil {
		return nil, err
	}
	var session AuthSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	if session.User == nil && session.AccessToken == "" {
		// Confirmation-required projects return the bare user object.
		var user AuthUser
		if err := json.Unmarshal(raw, &user); err == nil && user.ID != "" {
			session.User = &user
		}
	}
	return &session, nil
}

func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	var session AuthSession
	payload := map[string]any{"email": email, "password": password}
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", payload, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*AuthSession, error) {
	var session AuthSession
	payload := map[string]any{"refresh_token": refreshToken}
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", payload, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *AuthClient) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)
	var user AuthUser
	if err := c.send(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/v1/logout", map[string]any{}, accessToken, nil)
}
