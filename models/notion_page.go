package models

import (
	"time"

	"github.com/google/uuid"
)

// NotionPage is a wiki page reference owned by exactly one project.
type NotionPage struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_notion_page_project_id;constraint:OnDelete:CASCADE"`
	PageID    string    `json:"page_id" db:"page_id" gorm:"type:text;not null"`
	Title     *string   `json:"title,omitempty" db:"title" gorm:"type:text"`
	Position  int       `json:"-" db:"position" gorm:"type:integer;not null;default:0"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
