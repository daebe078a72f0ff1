package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TierFree      = "free"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
)

type User struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username             string     `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Email                string     `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash         string     `gorm:"size:128;not null" json:"password_hash"`
	FirstName            string     `gorm:"size:80" json:"first_name"`
	AvatarURL            string     `json:"avatar_url"`
	SubscriptionTier     string     `gorm:"size:20;default:free" json:"subscription_tier"`
	SubscriptionStatus   string     `gorm:"size:20" json:"subscription_status"`
	StripeCustomerID     string     `gorm:"size:120" json:"stripe_customer_id"`
	StripeSubscriptionID *string    `gorm:"size:120" json:"stripe_subscription_id"`
	DailyMessagesUsed    int        `gorm:"default:0" json:"daily_messages_used"`
	LastMessageDate      *time.Time `json:"last_message_date"`
	DailyJournalsUsed    int        `gorm:"default:0" json:"daily_journals_used"`
	LastJournalDate      *time.Time `json:"last_journal_date"`
	CreatedAt            time.Time  `json:"created_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ToMap includes password_hash for the auth service; anything returned
// to a client goes through services.SanitizeUser first.
func (u *User) ToMap() map[string]any {
	return map[string]any{
		"id":                     uuidOut(u.ID),
		"username":               u.Username,
		"email":                  u.Email,
		"password_hash":          u.PasswordHash,
		"first_name":             u.FirstName,
		"avatar_url":             u.AvatarURL,
		"subscription_tier":      u.SubscriptionTier,
		"subscription_status":    u.SubscriptionStatus,
		"stripe_customer_id":     u.StripeCustomerID,
		"stripe_subscription_id": strPtrOut(u.StripeSubscriptionID),
		"daily_messages_used":    u.DailyMessagesUsed,
		"last_message_date":      dateOut(u.LastMessageDate),
		"daily_journals_used":    u.DailyJournalsUsed,
		"last_journal_date":      dateOut(u.LastJournalDate),
		"created_at":             timeOut(u.CreatedAt),
	}
}
