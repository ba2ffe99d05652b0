package repository

import (
	"context"
	"errors"

	"estatemap/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *entity.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error)
	Update(ctx context.Context, property *entity.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]entity.Property, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]entity.Property, error)
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, p *entity.Property) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *propertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	var property entity.Property
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("id = ?", id).
		First(&property).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *entity.Property) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *propertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&entity.PropertyImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Property{}, "id = ?", id).Error
	})
}

func (r *propertyRepository) List(ctx context.Context, limit, offset int) ([]entity.Property, error) {
	return r.list(ctx, r.db.WithContext(ctx), limit, offset)
}

func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]entity.Property, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	return r.list(ctx, query, limit, offset)
}

func (r *propertyRepository) list(ctx context.Context, query *gorm.DB, limit, offset int) ([]entity.Property, error) {
	var properties []entity.Property
	query = query.Preload("Images").Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}
