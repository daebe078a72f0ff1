// Package store is the persistence boundary. Both backends implement
// Store and return structurally identical row maps (string UUIDs,
// RFC3339 timestamps), so nothing above this package knows which
// backend is running.
package store

import (
	"context"

	"github.com/selfmap/selfmap-backend/internal/types"
)

const (
	TableUsers                  = "users"
	TableSystems                = "ifs_systems"
	TableParts                  = "parts"
	TableRelationships          = "relationships"
	TableJournals               = "journals"
	TableGuidedSessions         = "guided_sessions"
	TableSessionMessages        = "session_messages"
	TablePartConversations      = "part_conversations"
	TableConversationMessages   = "conversation_messages"
	TablePartPersonalityVectors = "part_personality_vectors"
)

// Store is the persistence adapter. Point lookups return (nil, nil)
// for a missing row; errors mean the backend itself failed.
type Store interface {
	GetByID(ctx context.Context, table, id string) (map[string]any, error)
	// GetAll filters by equality conjunction only.
	GetAll(ctx context.Context, table string, filters map[string]any) ([]map[string]any, error)
	Create(ctx context.Context, table string, data map[string]any) (map[string]any, error)
	Update(ctx context.Context, table, id string, data map[string]any) (map[string]any, error)
	Delete(ctx context.Context, table, id string) (bool, error)
	Count(ctx context.Context, table string, filters map[string]any) (int64, error)
	// QueryVectorSimilarity returns rows ordered by distance to vector.
	QueryVectorSimilarity(ctx context.Context, table, column string, vector []float32, limit int) ([]map[string]any, error)
}

// entity is what the GORM arm hydrates rows into.
type entity interface {
	ToMap() map[string]any
}

// embeddable entities carry a pgvector column that can't round-trip
// through JSON, so the GORM arm sets it directly.
type embeddable interface {
	SetEmbedding([]float32)
}

var prototypes = map[string]func() entity{
	TableUsers:                  func() entity { return &types.User{} },
	TableSystems:                func() entity { return &types.System{} },
	TableParts:                  func() entity { return &types.Part{} },
	TableRelationships:          func() entity { return &types.Relationship{} },
	TableJournals:               func() entity { return &types.Journal{} },
	TableGuidedSessions:         func() entity { return &types.GuidedSession{} },
	TableSessionMessages:        func() entity { return &types.SessionMessage{} },
	TablePartConversations:      func() entity { return &types.PartConversation{} },
	TableConversationMessages:   func() entity { return &types.ConversationMessage{} },
	TablePartPersonalityVectors: func() entity { return &types.PartPersonalityVector{} },
}

// orderColumn keeps GetAll ordering stable; message tables don't have
// created_at.
func orderColumn(table string) string {
	switch table {
	case TableSessionMessages, TableConversationMessages:
		return "timestamp"
	default:
		return "created_at"
	}
}
