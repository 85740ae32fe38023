package database

import (
	"context"

	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

func preloadPages(db *gorm.DB) *gorm.DB {
	return db.Preload("NotionPages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// Paginate returns one page of projects, newest first, together with the total count.
func (r *ProjectRepo) Paginate(ctx context.Context, page, perPage int) ([]*models.Project, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []*models.Project
	err := preloadPages(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Offset(offset(page, perPage)).
		Limit(perPage).
		Find(&projects).Error
	return projects, total, err
}

// FindByID returns a project by its ID with its Notion pages in submitted order.
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := preloadPages(r.db.WithContext(ctx)).First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateWithPages inserts the project and its page references in one transaction.
func (r *ProjectRepo) CreateWithPages(ctx context.Context, project *models.Project, pageIDs []string) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		pages, err := replacePages(tx, project.ID, pageIDs)
		if err != nil {
			return err
		}
		project.NotionPages = pages
		return nil
	})
}

// UpdateWithPages saves the project columns. When replacePages is set, every
// existing page reference is deleted and pageIDs re-created, all in one transaction.
func (r *ProjectRepo) UpdateWithPages(ctx context.Context, project *models.Project, pageIDs []string, replace bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}
		if !replace {
			return nil
		}
		pages, err := replacePages(tx, project.ID, pageIDs)
		if err != nil {
			return err
		}
		project.NotionPages = pages
		return nil
	})
}

// Delete removes a project by id; page references cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.NotionPage{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
