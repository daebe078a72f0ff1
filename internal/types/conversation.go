package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Deprecated per-part conversation entities. The schema is still
// migrated so old rows survive, but no routes serve them.

type PartConversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SystemID  uuid.UUID `gorm:"type:uuid;index;not null" json:"system_id"`
	PartID    uuid.UUID `gorm:"type:uuid;index;not null" json:"part_id"`
	Title     string    `gorm:"size:255" json:"title"`
	Summary   string    `json:"summary"`
	Status    string    `gorm:"size:20;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PartConversation) TableName() string { return "part_conversations" }

func (c *PartConversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *PartConversation) ToMap() map[string]any {
	return map[string]any{
		"id":         uuidOut(c.ID),
		"system_id":  uuidOut(c.SystemID),
		"part_id":    uuidOut(c.PartID),
		"title":      c.Title,
		"summary":    c.Summary,
		"status":     c.Status,
		"created_at": timeOut(c.CreatedAt),
		"updated_at": timeOut(c.UpdatedAt),
	}
}

type ConversationMessage struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID       `gorm:"type:uuid;index;not null" json:"conversation_id"`
	Role           string          `gorm:"size:50;not null" json:"role"`
	Content        string          `gorm:"not null" json:"content"`
	Timestamp      time.Time        `gorm:"autoCreateTime" json:"timestamp"`
	Embedding      *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
}

func (ConversationMessage) TableName() string { return "conversation_messages" }

func (m *ConversationMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *ConversationMessage) SetEmbedding(vec []float32) {
	v := pgvector.NewVector(vec)
	m.Embedding = &v
}

func (m *ConversationMessage) ToMap() map[string]any {
	return map[string]any{
		"id":              uuidOut(m.ID),
		"conversation_id": uuidOut(m.ConversationID),
		"role":            m.Role,
		"content":         m.Content,
		"timestamp":       timeOut(m.Timestamp),
	}
}

type PartPersonalityVector struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PartID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"part_id"`
	Attribute   string          `gorm:"size:100;not null" json:"attribute"`
	Description string          `json:"description"`
	Embedding   *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (PartPersonalityVector) TableName() string { return "part_personality_vectors" }

func (v *PartPersonalityVector) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *PartPersonalityVector) SetEmbedding(vec []float32) {
	e := pgvector.NewVector(vec)
	v.Embedding = &e
}

func (v *PartPersonalityVector) ToMap() map[string]any {
	return map[string]any{
		"id":          uuidOut(v.ID),
		"part_id":     uuidOut(v.PartID),
		"attribute":   v.Attribute,
		"description": v.Description,
		"created_at":  timeOut(v.CreatedAt),
		"updated_at":  timeOut(v.UpdatedAt),
	}
}
