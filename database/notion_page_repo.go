package database

import (
	"github.com/consolelogkochan/dev-cockpit/extract"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// replacePages deletes every page reference of the project and re-creates
// pageIDs, normalizing each identifier. It must run inside a transaction.
func replacePages(tx *gorm.DB, projectID uuid.UUID, pageIDs []string) ([]models.NotionPage, error) {
	if err := tx.Where("project_id = ?", projectID).Delete(&models.NotionPage{}).Error; err != nil {
		return nil, err
	}

	pages := make([]models.NotionPage, 0, len(pageIDs))
	for _, raw := range pageIDs {
		if raw == "" {
			continue
		}
		pages = append(pages, models.NotionPage{
			ID:        uuid.New(),
			ProjectID: projectID,
			PageID:    extract.NotionPageID(raw),
			Position:  len(pages),
		})
	}
	if len(pages) == 0 {
		return pages, nil
	}

	if err := tx.Create(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}
