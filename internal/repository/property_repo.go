package repository

import (
	"context"

	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *model.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	List(ctx context.Context, filter dto.PropertyFilter) ([]model.Property, error)
	Update(ctx context.Context, p *model.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyRepo struct{ db *gorm.DB }

func NewPropertyRepository(db *gorm.DB) PropertyRepository { return &propertyRepo{db: db} }

func (r *propertyRepo) Create(ctx context.Context, p *model.Property) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *propertyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var p model.Property
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *propertyRepo) List(ctx context.Context, filter dto.PropertyFilter) ([]model.Property, error) {
	var out []model.Property
	q := r.db.WithContext(ctx).Model(&model.Property{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PropertyType != "" {
		q = q.Where("property_type = ?", filter.PropertyType)
	}
	if len(filter.OwnerIDs) > 0 {
		q = q.Where("owner_id IN ?", filter.OwnerIDs)
	}
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *propertyRepo) Update(ctx context.Context, p *model.Property) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *propertyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Property{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
