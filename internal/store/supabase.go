package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/platform/supabase"
)

type supabaseStore struct {
	client *supabase.Client
	log    *logger.Logger
}

// NewSupabase returns the hosted-REST arm of the adapter.
func NewSupabase(client *supabase.Client, log *logger.Logger) Store {
	return &supabaseStore{client: client, log: log.With("store", "supabase")}
}

func (s *supabaseStore) GetByID(ctx context.Context, table, id string) (map[string]any, error) {
	rows, err := s.client.Select(ctx, table, map[string]any{"id": id})
	if err != nil {
		s.log.Error("get_by_id failed", "table", table, "error", err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *supabaseStore) GetAll(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error) {
	rows, err := s.client.Select(ctx, table, encodeRow(filters))
	if err != nil {
		s.log.Error("get_all failed", "table", table, "error", err)
		return nil, err
	}
	return rows, nil
}

func (s *supabaseStore) Create(ctx context.Context, table string, data map[string]any) (map[string]any, error) {
	row, err := s.client.Insert(ctx, table, encodeRow(data))
	if err != nil {
		s.log.Error("create failed", "table", table, "error", err)
		return nil, err
	}
	return row, nil
}

func (s *supabaseStore) Update(ctx context.Context, table, id string, data map[string]any) (map[string]any, error) {
	payload := encodeRow(data)
	delete(payload, "id")
	rows, err := s.client.Update(ctx, table, map[string]any{"id": id}, payload)
	if err != nil {
		s.log.Error("update failed", "table", table, "error", err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *supabaseStore) Delete(ctx context.Context, table, id string) (bool, error) {
	rows, err := s.client.Delete(ctx, table, map[string]any{"id": id})
	if err != nil {
		s.log.Error("delete failed", "table", table, "error", err)
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *supabaseStore) Count(ctx context.Context, table string, filters map[string]any) (int64, error) {
	n, err := s.client.Count(ctx, table, encodeRow(filters))
	if err != nil {
		s.log.Error("count failed", "table", table, "error", err)
		return 0, err
	}
	return n, nil
}

func (s *supabaseStore) QueryVectorSimilarity(ctx context.Context, table, column string, vector []float32, limit int) ([]map[string]any, error) {
	rows, err := s.client.RPC(ctx, "vector_search", map[string]any{
		"table_name":    table,
		"vector_column": column,
		"query_vector":  vector,
		"limit_results": limit,
	})
	if err != nil {
		s.log.Error("vector similarity query failed", "table", table, "error", err)
		return nil, err
	}
	return rows, nil
}

// encodeRow stringifies values PostgREST can't take as native JSON:
// UUIDs, timestamps, and embedding vectors.
func encodeRow(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = encodeValue(k, v)
	}
	return out
}

func encodeValue(key string, v any) any {
	switch t := v.(type) {
	case uuid.UUID:
		return t.String()
	case *uuid.UUID:
		if t == nil {
			return nil
		}
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case []float32:
		return vectorLiteral32(t)
	case []float64:
		return vectorLiteral64(t)
	default:
		return v
	}
}

func vectorLiteral32(vec []float32) string {
	parts := make([]string, len(vec))
	for i, f := range vec {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func vectorLiteral64(vec []float64) string {
	parts := make([]string, len(vec))
	for i, f := range vec {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
