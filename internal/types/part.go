package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SelfPartName is the protected core part created with every system.
const SelfPartName = "Self"

type Part struct {
	ID          uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	SystemID    uuid.UUID                  `gorm:"type:uuid;index;not null" json:"system_id"`
	Name        string                     `gorm:"size:100;not null" json:"name"`
	Role        string                     `gorm:"size:50" json:"role"`
	Description string                     `json:"description"`
	Feelings    datatypes.JSONSlice[string] `json:"feelings"`
	Beliefs     datatypes.JSONSlice[string] `json:"beliefs"`
	Triggers    datatypes.JSONSlice[string] `json:"triggers"`
	Needs       datatypes.JSONSlice[string] `json:"needs"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

func (Part) TableName() string { return "parts" }

func (p *Part) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Part) ToMap() map[string]any {
	return map[string]any{
		"id":          uuidOut(p.ID),
		"system_id":   uuidOut(p.SystemID),
		"name":        p.Name,
		"role":        p.Role,
		"description": p.Description,
		"feelings":    []string(p.Feelings),
		"beliefs":     []string(p.Beliefs),
		"triggers":    []string(p.Triggers),
		"needs":       []string(p.Needs),
		"created_at":  timeOut(p.CreatedAt),
		"updated_at":  timeOut(p.UpdatedAt),
	}
}
