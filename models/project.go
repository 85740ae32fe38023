package models

import (
	"time"

	"github.com/google/uuid"
)

// Project aggregates links to the external tools a team works with. The
// GitHub, Figma and Project-Lite references hold canonical identifiers only;
// pasted URLs are normalized by package extract before a Project is saved.
type Project struct {
	ID           uuid.UUID    `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	OwnerID      uuid.UUID    `json:"owner_id" db:"owner_id" gorm:"type:uuid;not null;index:idx_project_owner_id"`
	Title        string       `json:"title" db:"title" gorm:"type:text;not null"`
	Description  *string      `json:"description" db:"description" gorm:"type:text"`
	ThumbnailURL *string      `json:"thumbnail_url" db:"thumbnail_url" gorm:"type:text"`
	GithubRepo   *string      `json:"github_repo" db:"github_repo" gorm:"type:text"`
	FigmaFileKey *string      `json:"figma_file_key" db:"figma_file_key" gorm:"type:text"`
	PLBoardID    *int64       `json:"pl_board_id" db:"pl_board_id" gorm:"column:pl_board_id;type:bigint"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at" gorm:"not null;index:idx_project_created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at" gorm:"not null"`
	NotionPages  []NotionPage `json:"notion_pages" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

// NotionPageIDs returns the stored page identifiers in insertion order.
func (p *Project) NotionPageIDs() []string {
	ids := make([]string, 0, len(p.NotionPages))
	for _, page := range p.NotionPages {
		ids = append(ids, page.PageID)
	}
	return ids
}
