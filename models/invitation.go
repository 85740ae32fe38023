package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation is a single-use registration code issued by an admin.
type Invitation struct {
	ID        uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Code      string     `json:"code" db:"code" gorm:"type:text;not null;uniqueIndex:idx_invitation_code"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by" gorm:"type:uuid;not null"`
	Email     *string    `json:"email,omitempty" db:"email" gorm:"type:text"`
	IsUsed    bool       `json:"is_used" db:"is_used" gorm:"not null;default:false"`
	ExpiresAt *time.Time `json:"expires_at" db:"expires_at" gorm:"type:timestamp"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	Creator *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy;references:ID;constraint:OnDelete:CASCADE"`
}

// Redeemable reports whether the code can still be used to register at now.
func (i *Invitation) Redeemable(now time.Time) bool {
	if i.IsUsed {
		return false
	}
	return i.ExpiresAt == nil || now.Before(*i.ExpiresAt)
}
