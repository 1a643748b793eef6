package repository

import (
	"context"

	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractRepository interface {
	// Create stores the contract and its first history entry in one transaction.
	Create(ctx context.Context, c *model.Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	List(ctx context.Context, filter dto.ContractFilter) ([]model.Contract, error)
	// Update saves descriptive fields. History rows are never touched.
	Update(ctx context.Context, c *model.Contract) error
	// AppendTransition saves c and inserts change atomically, provided the
	// stored status is still from. Otherwise it returns ErrConflict.
	AppendTransition(ctx context.Context, c *model.Contract, from model.ContractStatus, change model.ContractStatusChange) error
}

type contractRepo struct{ db *gorm.DB }

func NewContractRepository(db *gorm.DB) ContractRepository { return &contractRepo{db: db} }

func orderedHistory(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }

func (r *contractRepo) Create(ctx context.Context, c *model.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		history := c.StatusHistory
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		for i := range history {
			history[i].ContractID = c.ID
		}
		if len(history) > 0 {
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}
		c.StatusHistory = history
		return nil
	})
}

func (r *contractRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).Preload("StatusHistory", orderedHistory).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *contractRepo) List(ctx context.Context, filter dto.ContractFilter) ([]model.Contract, error) {
	var out []model.Contract
	q := r.db.WithContext(ctx).Model(&model.Contract{})
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if len(filter.AgentIDs) > 0 {
		q = q.Where("agent_id IN ?", filter.AgentIDs)
	}
	err := q.Preload("StatusHistory", orderedHistory).
		Order("uploaded_at DESC").
		Find(&out).Error
	return out, err
}

func (r *contractRepo) Update(ctx context.Context, c *model.Contract) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *contractRepo) AppendTransition(ctx context.Context, c *model.Contract, from model.ContractStatus, change model.ContractStatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Contract{}).
			Where("id = ? AND status = ?", c.ID, from).
			Select("*").
			Omit(clause.Associations, "id", "created_at").
			Updates(c)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		change.ContractID = c.ID
		return tx.Create(&change).Error
	})
}
