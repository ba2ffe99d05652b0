package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

type Property struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Owner   User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`

	Title       string      `gorm:"type:varchar(100);not null"`
	Description string      `gorm:"type:text"`
	Price       float64     `gorm:"not null"`
	ListingType ListingType `gorm:"type:varchar(10);default:'sale';not null"`

	Latitude  float64 `gorm:"not null"`
	Longitude float64 `gorm:"not null"`

	// Polygon holds the geocoded boundary as a JSON array of [lat, lng]
	// pairs drawn on the map when the listing is created.
	Polygon datatypes.JSON

	Address  string `gorm:"type:varchar(255)"`
	City     string `gorm:"type:varchar(100)"`
	Province string `gorm:"type:varchar(100)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Images []PropertyImage `gorm:"constraint:OnDelete:CASCADE"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
