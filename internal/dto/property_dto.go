package dto

import (
	"encoding/json"
	"time"

	"estatemap/internal/entity"
)

type PropertyRequest struct {
	Title       string          `json:"title" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       float64         `json:"price" validate:"gte=0"`
	ListingType string          `json:"listing_type" validate:"omitempty,oneof=sale rent"`
	Latitude    float64         `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64         `json:"longitude" validate:"gte=-180,lte=180"`
	Polygon     json.RawMessage `json:"polygon,omitempty"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	Province    string          `json:"province"`
}

type PropertyResponse struct {
	ID          string                  `json:"id"`
	OwnerID     string                  `json:"owner_id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Price       float64                 `json:"price"`
	ListingType string                  `json:"listing_type"`
	Latitude    float64                 `json:"latitude"`
	Longitude   float64                 `json:"longitude"`
	Polygon     json.RawMessage         `json:"polygon,omitempty"`
	Address     string                  `json:"address"`
	City        string                  `json:"city"`
	Province    string                  `json:"province"`
	Images      []PropertyImageResponse `json:"images"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

type PropertyImageResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	OriginalSize     int64     `json:"original_size"`
	OptimizedSize    int64     `json:"optimized_size"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	Format           string    `json:"format"`
	URL              string    `json:"url"`
	ThumbURL         *string   `json:"thumb_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func PropertyResponseFromEntity(property *entity.Property) PropertyResponse {
	images := make([]PropertyImageResponse, 0, len(property.Images))
	for i := range property.Images {
		images = append(images, PropertyImageResponseFromEntity(&property.Images[i]))
	}
	return PropertyResponse{
		ID:          property.ID.String(),
		OwnerID:     property.OwnerID.String(),
		Title:       property.Title,
		Description: property.Description,
		Price:       property.Price,
		ListingType: string(property.ListingType),
		Latitude:    property.Latitude,
		Longitude:   property.Longitude,
		Polygon:     json.RawMessage(property.Polygon),
		Address:     property.Address,
		City:        property.City,
		Province:    property.Province,
		Images:      images,
		CreatedAt:   property.CreatedAt,
		UpdatedAt:   property.UpdatedAt,
	}
}

func PropertyResponsesFromEntities(properties []entity.Property) []PropertyResponse {
	responses := make([]PropertyResponse, 0, len(properties))
	for i := range properties {
		responses = append(responses, PropertyResponseFromEntity(&properties[i]))
	}
	return responses
}

func PropertyImageResponseFromEntity(image *entity.PropertyImage) PropertyImageResponse {
	return PropertyImageResponse{
		ID:               image.ID.String(),
		OriginalFilename: image.OriginalFilename,
		OriginalSize:     image.OriginalSize,
		OptimizedSize:    image.OptimizedSize,
		Width:            image.Width,
		Height:           image.Height,
		Format:           image.Format,
		URL:              image.URL,
		ThumbURL:         image.ThumbURL,
		CreatedAt:        image.CreatedAt,
	}
}
