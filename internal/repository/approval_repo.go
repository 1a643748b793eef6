package repository

import (
	"context"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.UserApprovalRequest, error)
	ListPending(ctx context.Context) ([]model.UserApprovalRequest, error)
	// Resolve saves a decided request and moves the requested user to
	// userStatus in one transaction. It fails with ErrConflict when the request
	// was already decided by someone else.
	Resolve(ctx context.Context, a *model.UserApprovalRequest, userStatus model.UserStatus) error
}

type approvalRepo struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) ApprovalRepository { return &approvalRepo{db: db} }

func (r *approvalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.UserApprovalRequest, error) {
	var a model.UserApprovalRequest
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *approvalRepo) ListPending(ctx context.Context) ([]model.UserApprovalRequest, error) {
	var out []model.UserApprovalRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ApprovalPending).
		Order("requested_at ASC").
		Find(&out).Error
	return out, err
}

func (r *approvalRepo) Resolve(ctx context.Context, a *model.UserApprovalRequest, userStatus model.UserStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserApprovalRequest{}).
			Where("id = ? AND status = ?", a.ID, model.ApprovalPending).
			Updates(map[string]any{
				"status":           a.Status,
				"reviewed_by":      a.ReviewedBy,
				"reviewed_by_name": a.ReviewedByName,
				"reviewed_at":      a.ReviewedAt,
				"review_notes":     a.ReviewNotes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.Model(&model.User{}).
			Where("id = ?", a.RequestedUserID).
			Update("status", userStatus).Error
	})
}
