package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type gormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGorm returns the local-database arm of the adapter.
func NewGorm(db *gorm.DB, log *logger.Logger) Store {
	return &gormStore{db: db, log: log.With("store", "gorm")}
}

func (s *gormStore) proto(table string) (entity, error) {
	factory, ok := prototypes[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return factory(), nil
}

func (s *gormStore) GetByID(ctx context.Context, table, id string) (map[string]any, error) {
	e, err := s.proto(table)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).First(e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.log.Error("get_by_id failed", "table", table, "error", err)
		return nil, err
	}
	return e.ToMap(), nil
}

func (s *gormStore) GetAll(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error) {
	e, err := s.proto(table)
	if err != nil {
		return nil, err
	}
	slicePtr := reflect.New(reflect.SliceOf(reflect.TypeOf(e).Elem()))
	tx := s.db.WithContext(ctx).Model(e).Order(orderColumn(table))
	if len(filters) > 0 {
		tx = tx.Where(filters)
	}
	if err := tx.Find(slicePtr.Interface()).Error; err != nil {
		s.log.Error("get_all failed", "table", table, "error", err)
		return nil, err
	}
	rows := slicePtr.Elem()
	out := make([]map[string]any, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		out = append(out, rows.Index(i).Addr().Interface().(entity).ToMap())
	}
	return out, nil
}

func (s *gormStore) Create(ctx context.Context, table string, data map[string]any) (map[string]any, error) {
	e, err := s.proto(table)
	if err != nil {
		return nil, err
	}
	// Callers may supply an explicit id (shadow users keep the hosted
	// provider's id), so create keeps it.
	vec, err := hydrate(e, data, true)
	if err != nil {
		s.log.Error("create hydration failed", "table", table, "error", err)
		return nil, err
	}
	if vec != nil {
		if h, ok := e.(embeddable); ok {
			h.SetEmbedding(vec)
		}
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		s.log.Error("create failed", "table", table, "error", err)
		return nil, err
	}
	return e.ToMap(), nil
}

func (s *gormStore) Update(ctx context.Context, table, id string, data map[string]any) (map[string]any, error) {
	e, err := s.proto(table)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).First(e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.log.Error("update lookup failed", "table", table, "error", err)
		return nil, err
	}
	vec, err := hydrate(e, data, false)
	if err != nil {
		s.log.Error("update hydration failed", "table", table, "error", err)
		return nil, err
	}
	if vec != nil {
		if h, ok := e.(embeddable); ok {
			h.SetEmbedding(vec)
		}
	}
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		s.log.Error("update failed", "table", table, "error", err)
		return nil, err
	}
	return e.ToMap(), nil
}

func (s *gormStore) Delete(ctx context.Context, table, id string) (bool, error) {
	e, err := s.proto(table)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(e)
	if res.Error != nil {
		s.log.Error("delete failed", "table", table, "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) Count(ctx context.Context, table string, filters map[string]any) (int64, error) {
	e, err := s.proto(table)
	if err != nil {
		return 0, err
	}
	tx := s.db.WithContext(ctx).Model(e)
	if len(filters) > 0 {
		tx = tx.Where(filters)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		s.log.Error("count failed", "table", table, "error", err)
		return 0, err
	}
	return n, nil
}

func (s *gormStore) QueryVectorSimilarity(ctx context.Context, table, column string, vector []float32, limit int) ([]map[string]any, error) {
	e, err := s.proto(table)
	if err != nil {
		return nil, err
	}
	if column != "embedding" {
		return nil, fmt.Errorf("unknown vector column %q", column)
	}
	slicePtr := reflect.New(reflect.SliceOf(reflect.TypeOf(e).Elem()))
	err = s.db.WithContext(ctx).
		Model(e).
		Where(column+" IS NOT NULL").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  column + " <-> ?",
			Vars: []any{pgvector.NewVector(vector)},
		}}).
		Limit(limit).
		Find(slicePtr.Interface()).Error
	if err != nil {
		s.log.Error("vector similarity query failed", "table", table, "error", err)
		return nil, err
	}
	rows := slicePtr.Elem()
	out := make([]map[string]any, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		out = append(out, rows.Index(i).Addr().Interface().(entity).ToMap())
	}
	return out, nil
}

// hydrate fills e from data via a JSON round-trip, so string UUIDs,
// timestamps, and list attributes all land in their typed fields. The
// embedding value is returned separately for the pgvector column.
func hydrate(e entity, data map[string]any, keepID bool) ([]float32, error) {
	payload := make(map[string]any, len(data))
	for k, v := range data {
		payload[k] = v
	}
	if !keepID {
		delete(payload, "id")
	}
	vec := popEmbedding(payload)
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(buf, e); err != nil {
		return nil, err
	}
	return vec, nil
}

func popEmbedding(data map[string]any) []float32 {
	raw, ok := data["embedding"]
	if !ok {
		return nil
	}
	delete(data, "embedding")
	switch v := raw.(type) {
	case []float32:
		return v
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(v))
		for _, item := range v {
			if f, ok := item.(float64); ok {
				out = append(out, float32(f))
			}
		}
		return out
	default:
		return nil
	}
}
