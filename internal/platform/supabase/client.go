// Package supabase is a thin client for the hosted backend: the
// PostgREST table API under /rest/v1 and the GoTrue auth API under
// /auth/v1. Server-side calls use the service role key.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase: %s (%d)", e.Message, e.Status)
}

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     *logger.Logger
}

func NewClient(log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(envutil.String("SUPABASE_URL", ""), "/")
	apiKey := envutil.String("SUPABASE_SERVICE_KEY", envutil.String("SUPABASE_ANON_KEY", ""))
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: envutil.Duration("SUPABASE_HTTP_TIMEOUT", 15*time.Second)},
		log:     log.With("client", "SupabaseClient"),
	}, nil
}

func (c *Client) restURL(table string, filters map[string]any) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(filters) == 0 {
		return u
	}
	q := url.Values{}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Add(k, "eq."+fmt.Sprint(filters[k]))
	}
	return u + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any, prefer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	return c.httpc.Do(req)
}

func decodeRows(resp *http.Response) ([]map[string]any, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		// PostgREST returns a bare object for single-row responses.
		var row map[string]any
		if err2 := json.Unmarshal(raw, &row); err2 != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return []map[string]any{row}, nil
	}
	return rows, nil
}

func (c *Client) Select(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, c.restURL(table, filters), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeRows(resp)
}

func (c *Client) Insert(ctx context.Context, table string, row map[string]any) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodPost, c.restURL(table, nil), row, "return=representation")
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Status: resp.StatusCode, Message: "insert returned no representation"}
	}
	return rows[0], nil
}

func (c *Client) Update(ctx context.Context, table string, filters map[string]any, data map[string]any) ([]map[string]any, error) {
	resp, err := c.do(ctx, http.MethodPatch, c.restURL(table, filters), data, "return=representation")
	if err != nil {
		return nil, err
	}
	return decodeRows(resp)
}

func (c *Client) Delete(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error) {
	resp, err := c.do(ctx, http.MethodDelete, c.restURL(table, filters), nil, "return=representation")
	if err != nil {
		return nil, err
	}
	return decodeRows(resp)
}

// Count asks PostgREST for an exact count via the Content-Range header.
func (c *Client) Count(ctx context.Context, table string, filters map[string]any) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, c.restURL(table, filters), nil, "count=exact")
	if err != nil {
		return 0, err
	}
	contentRange := resp.Header.Get("Content-Range")
	rows, err := decodeRows(resp)
	if err != nil {
		return 0, err
	}
	// Content-Range looks like "0-9/57".
	if idx := strings.LastIndex(contentRange, "/"); idx >= 0 {
		if n, perr := strconv.ParseInt(contentRange[idx+1:], 10, 64); perr == nil {
			return n, nil
		}
	}
	return int64(len(rows)), nil
}

// RPC calls a Postgres function exposed under /rest/v1/rpc.
func (c *Client) RPC(ctx context.Context, fn string, args map[string]any) ([]map[string]any, error) {
	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+fn, args, "")
	if err != nil {
		return nil, err
	}
	return decodeRows(resp)
}
