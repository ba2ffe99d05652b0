package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyImage records one optimized upload artifact. The pipeline runs
// once when the row is created; replacing a photo creates a new row and
// deletes this one, it never mutates the stored artifact.
type PropertyImage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index"`

	OriginalFilename string `gorm:"type:varchar(255);not null"`
	OriginalSize     int64  `gorm:"not null"`
	OptimizedSize    int64  `gorm:"not null"`

	Width  int `gorm:"not null"`
	Height int `gorm:"not null"`

	Format  string `gorm:"type:varchar(10);not null"`
	Quality int    `gorm:"not null"`

	ObjectKey string `gorm:"type:varchar(512);not null"`
	URL       string `gorm:"type:text;not null"`

	ThumbObjectKey *string `gorm:"type:varchar(512)"`
	ThumbURL       *string `gorm:"type:text"`

	CreatedAt time.Time
}

func (i *PropertyImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
