package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// System is a user's internal family system: the container that owns
// parts, relationships, and journals. One per user.
type System struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	Parts         []Part         `gorm:"foreignKey:SystemID;constraint:OnDelete:CASCADE" json:"-"`
	Relationships []Relationship `gorm:"foreignKey:SystemID;constraint:OnDelete:CASCADE" json:"-"`
	Journals      []Journal      `gorm:"foreignKey:SystemID;constraint:OnDelete:CASCADE" json:"-"`
}

func (System) TableName() string { return "ifs_systems" }

func (s *System) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *System) ToMap() map[string]any {
	return map[string]any{
		"id":         uuidOut(s.ID),
		"user_id":    uuidOut(s.UserID),
		"created_at": timeOut(s.CreatedAt),
	}
}
