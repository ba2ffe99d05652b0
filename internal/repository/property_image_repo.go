package repository

import (
	"context"
	"errors"

	"estatemap/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyImageRepository interface {
	Create(ctx context.Context, image *entity.PropertyImage) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PropertyImage, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]entity.PropertyImage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyImageRepository struct {
	db *gorm.DB
}

func NewPropertyImageRepository(db *gorm.DB) PropertyImageRepository {
	return &propertyImageRepository{db: db}
}

func (r *propertyImageRepository) Create(ctx context.Context, image *entity.PropertyImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *propertyImageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PropertyImage, error) {
	var image entity.PropertyImage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *propertyImageRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]entity.PropertyImage, error) {
	var images []entity.PropertyImage
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *propertyImageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.PropertyImage{}, "id = ?", id).Error
}
