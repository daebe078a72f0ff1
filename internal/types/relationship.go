package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Relationship links two parts of the same system. Columns keep the
// part1/part2 names the hosted schema uses; the API serializes them as
// source_id/target_id.
type Relationship struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SystemID         uuid.UUID `gorm:"type:uuid;index;not null" json:"system_id"`
	Part1ID          uuid.UUID `gorm:"type:uuid;not null" json:"part1_id"`
	Part2ID          uuid.UUID `gorm:"type:uuid;not null" json:"part2_id"`
	RelationshipType string    `gorm:"size:100;not null" json:"relationship_type"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Relationship) TableName() string { return "relationships" }

func (r *Relationship) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Relationship) ToMap() map[string]any {
	return map[string]any{
		"id":                uuidOut(r.ID),
		"system_id":         uuidOut(r.SystemID),
		"part1_id":          uuidOut(r.Part1ID),
		"part2_id":          uuidOut(r.Part2ID),
		"relationship_type": r.RelationshipType,
		"description":       r.Description,
		"created_at":        timeOut(r.CreatedAt),
		"updated_at":        timeOut(r.UpdatedAt),
	}
}
