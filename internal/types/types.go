// Package types holds the persisted entities shared by both storage
// backends. ToMap renders an entity the way the REST backend returns
// rows: string UUIDs, RFC3339 timestamps, nil for absent values.
package types

import (
	"time"

	"github.com/google/uuid"
)

func uuidOut(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func uuidPtrOut(id *uuid.UUID) any {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id.String()
}

func strPtrOut(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func timeOut(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func dateOut(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}
