package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const (
	SessionStatusActive   = "active"
	SessionStatusArchived = "archived"

	MessageRoleUser  = "user"
	MessageRoleGuide = "guide"

	// EmbeddingDim is the dimension of message embedding vectors.
	EmbeddingDim = 384
)

// GuidedSession is an AI-guided exploration conversation.
type GuidedSession struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	SystemID           uuid.UUID  `gorm:"type:uuid;index;not null" json:"system_id"`
	Title              string     `json:"title"`
	Summary            string     `json:"summary"`
	Topic              string     `json:"topic"`
	Status             string     `gorm:"size:20;default:active" json:"status"`
	CurrentFocusPartID *uuid.UUID `gorm:"type:uuid" json:"current_focus_part_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Messages []SessionMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (GuidedSession) TableName() string { return "guided_sessions" }

func (s *GuidedSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SessionStatusActive
	}
	return nil
}

func (s *GuidedSession) ToMap() map[string]any {
	return map[string]any{
		"id":                    uuidOut(s.ID),
		"user_id":               uuidOut(s.UserID),
		"system_id":             uuidOut(s.SystemID),
		"title":                 s.Title,
		"summary":               s.Summary,
		"topic":                 s.Topic,
		"status":                s.Status,
		"current_focus_part_id": uuidPtrOut(s.CurrentFocusPartID),
		"created_at":            timeOut(s.CreatedAt),
		"updated_at":            timeOut(s.UpdatedAt),
	}
}

type SessionMessage struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID       `gorm:"type:uuid;index;not null" json:"session_id"`
	Role      string          `gorm:"size:50;not null" json:"role"`
	Content   string          `gorm:"not null" json:"content"`
	Timestamp time.Time        `gorm:"autoCreateTime" json:"timestamp"`
	Embedding *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
}

func (SessionMessage) TableName() string { return "session_messages" }

func (m *SessionMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *SessionMessage) SetEmbedding(vec []float32) {
	v := pgvector.NewVector(vec)
	m.Embedding = &v
}

// Embedding stays out of the rendered row, matching the hosted column
// selection used for message reads.
func (m *SessionMessage) ToMap() map[string]any {
	return map[string]any{
		"id":         uuidOut(m.ID),
		"session_id": uuidOut(m.SessionID),
		"role":       m.Role,
		"content":    m.Content,
		"timestamp":  timeOut(m.Timestamp),
	}
}
