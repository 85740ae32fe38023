package database

import (
	"context"
	"errors"
	"time"

	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvitationNotRedeemable is returned when a code is unknown, used or expired.
var ErrInvitationNotRedeemable = errors.New("invitation code is invalid, used or expired")

type InvitationRepo struct {
	db *gorm.DB
}

func NewInvitationRepo(db *gorm.DB) *InvitationRepo {
	return &InvitationRepo{db}
}

// Paginate returns one page of invitations with their creator, newest first.
func (r *InvitationRepo) Paginate(ctx context.Context, page, perPage int) ([]*models.Invitation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Invitation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invitations []*models.Invitation
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Order("created_at DESC").
		Offset(offset(page, perPage)).
		Limit(perPage).
		Find(&invitations).Error
	return invitations, total, err
}

// CodeExists reports whether an invitation already uses code.
func (r *InvitationRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invitation{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *InvitationRepo) Add(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == uuid.Nil {
		invitation.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Creator").Create(invitation).Error
}

func (r *InvitationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Invitation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Redeem creates user and marks the invitation used in one transaction. The
// invitation row is locked so a code can never register two accounts.
func (r *InvitationRepo) Redeem(ctx context.Context, code string, user *models.User, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitation models.Invitation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invitation, "code = ?", code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotRedeemable
		}
		if err != nil {
			return err
		}
		if !invitation.Redeemable(now) {
			return ErrInvitationNotRedeemable
		}

		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		return tx.Model(&invitation).Update("is_used", true).Error
	})
}
