package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Journal struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SystemID uuid.UUID  `gorm:"type:uuid;index;not null" json:"system_id"`
	PartID   *uuid.UUID `gorm:"type:uuid" json:"part_id"`
	Title    string     `gorm:"size:200;not null" json:"title"`
	Content  string     `json:"content"`
	// Opaque JSON string for emotions, parts present, and whatever else
	// the client wants to stash. Serialized to the API as "metadata".
	JournalMetadata string    `json:"journal_metadata"`
	Date            time.Time `json:"date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Journal) TableName() string { return "journals" }

func (j *Journal) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Date.IsZero() {
		j.Date = time.Now().UTC()
	}
	return nil
}

func (j *Journal) ToMap() map[string]any {
	return map[string]any{
		"id":               uuidOut(j.ID),
		"system_id":        uuidOut(j.SystemID),
		"part_id":          uuidPtrOut(j.PartID),
		"title":            j.Title,
		"content":          j.Content,
		"journal_metadata": j.JournalMetadata,
		"date":             timeOut(j.Date),
		"created_at":       timeOut(j.CreatedAt),
		"updated_at":       timeOut(j.UpdatedAt),
	}
}
