package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/selfmap/selfmap-backend/internal/store"
)

// fakeStore is an in-memory store.Store used by the service tests.
type fakeStore struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string][]map[string]any{}}
}

func (f *fakeStore) seed(table string, rows ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		f.tables[table] = append(f.tables[table], copyRow(row))
	}
}

// copyRow renders values the way both production backends do: UUIDs
// and timestamps come back as strings, never as their Go types.
func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch t := v.(type) {
		case uuid.UUID:
			out[k] = t.String()
		case time.Time:
			out[k] = t.UTC().Format(time.RFC3339)
		default:
			out[k] = v
		}
	}
	return out
}

func matches(row, filters map[string]any) bool {
	for k, want := range filters {
		if fmt.Sprint(row[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func (f *fakeStore) GetByID(ctx context.Context, table, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.tables[table] {
		if fmt.Sprint(row["id"]) == id {
			return copyRow(row), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetAll(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, row := range f.tables[table] {
		if matches(row, filters) {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, table string, data map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := copyRow(data)
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.New().String()
	}
	f.tables[table] = append(f.tables[table], row)
	return copyRow(row), nil
}

func (f *fakeStore) Update(ctx context.Context, table, id string, data map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.tables[table] {
		if fmt.Sprint(row["id"]) == id {
			for k, v := range data {
				row[k] = v
			}
			return copyRow(row), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Delete(ctx context.Context, table, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.tables[table]
	for i, row := range rows {
		if fmt.Sprint(row["id"]) == id {
			f.tables[table] = append(rows[:i], rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Count(ctx context.Context, table string, filters map[string]any) (int64, error) {
	rows, _ := f.GetAll(ctx, table, filters)
	return int64(len(rows)), nil
}

func (f *fakeStore) QueryVectorSimilarity(ctx context.Context, table, column string, vector []float32, limit int) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, row := range f.tables[table] {
		if row[column] == nil {
			continue
		}
		out = append(out, copyRow(row))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

var _ store.Store = (*fakeStore)(nil)
