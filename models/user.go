package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name         string    `json:"name" db:"name" gorm:"type:text;not null"`
	Email        string    `json:"email" db:"email" gorm:"type:text;not null;uniqueIndex:idx_user_email"`
	PasswordHash string    `json:"-" db:"password_hash" gorm:"type:text;not null"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin" gorm:"not null;default:false"`
	AvatarURL    *string   `json:"avatar_url" db:"avatar_url" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// NewEmail waits for confirmation through EmailChangeToken before it
	// replaces Email.
	NewEmail         *string `json:"new_email,omitempty" db:"new_email" gorm:"type:text"`
	EmailChangeToken *string `json:"-" db:"email_change_token" gorm:"type:text;uniqueIndex:idx_user_email_change_token"`
}
