package service

import (
	"context"
	"fmt"
	"strings"

	"estatemap/internal/entity"
	"estatemap/internal/imaging"
	"estatemap/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type CreatePropertyInput struct {
	Title       string
	Description string
	Price       float64
	ListingType entity.ListingType
	Latitude    float64
	Longitude   float64
	Polygon     datatypes.JSON
	Address     string
	City        string
	Province    string
}

type ImageUpload struct {
	Filename string
	Data     []byte
}

type PropertyService struct {
	properties repository.PropertyRepository
	images     repository.PropertyImageRepository
	blobs      BlobStore
	validator  imaging.UploadValidator
	imageOpts  imaging.Options
	logger     *logrus.Logger
}

func NewPropertyService(
	properties repository.PropertyRepository,
	images repository.PropertyImageRepository,
	blobs BlobStore,
	validator imaging.UploadValidator,
	imageOpts imaging.Options,
	logger *logrus.Logger,
) *PropertyService {
	return &PropertyService{
		properties: properties,
		images:     images,
		blobs:      blobs,
		validator:  validator,
		imageOpts:  imageOpts,
		logger:     logger,
	}
}

func (s *PropertyService) Create(ctx context.Context, ownerID uuid.UUID, input CreatePropertyInput) (*entity.Property, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidInput
	}
	listingType := input.ListingType
	if listingType == "" {
		listingType = entity.ListingSale
	}

	property := &entity.Property{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		ListingType: listingType,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Polygon:     input.Polygon,
		Address:     input.Address,
		City:        input.City,
		Province:    input.Province,
	}
	if err := s.properties.Create(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}
	return property, nil
}

func (s *PropertyService) List(ctx context.Context, limit, offset int) ([]entity.Property, error) {
	return s.properties.List(ctx, limit, offset)
}

func (s *PropertyService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]entity.Property, error) {
	return s.properties.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *PropertyService) Update(ctx context.Context, ownerID, propertyID uuid.UUID, input CreatePropertyInput) (*entity.Property, error) {
	property, err := s.owned(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) != "" {
		property.Title = strings.TrimSpace(input.Title)
	}
	property.Description = input.Description
	property.Price = input.Price
	if input.ListingType != "" {
		property.ListingType = input.ListingType
	}
	property.Latitude = input.Latitude
	property.Longitude = input.Longitude
	if input.Polygon != nil {
		property.Polygon = input.Polygon
	}
	property.Address = input.Address
	property.City = input.City
	property.Province = input.Province

	if err := s.properties.Update(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *PropertyService) Delete(ctx context.Context, ownerID, propertyID uuid.UUID) error {
	property, err := s.owned(ctx, ownerID, propertyID)
	if err != nil {
		return err
	}

	for i := range property.Images {
		s.removeBlobs(ctx, &property.Images[i])
	}
	return s.properties.Delete(ctx, property.ID)
}

// AddImage runs the upload through validation and the optimization
// pipeline, stores main image and thumbnail under distinct keys and
// persists the artifact metadata. A pipeline failure degrades to storing
// the original bytes; only validation failures are reported.
func (s *PropertyService) AddImage(ctx context.Context, ownerID, propertyID uuid.UUID, upload ImageUpload) (*entity.PropertyImage, error) {
	property, err := s.owned(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(upload.Filename, upload.Data); err != nil {
		return nil, err
	}

	result := imaging.Optimize(upload.Data, s.imageOpts)
	format := s.imageOpts.Format
	if !result.Optimized {
		format = formatFromFilename(upload.Filename)
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"property_id": property.ID,
				"filename":    upload.Filename,
			}).Warn("image optimization failed, storing original bytes")
		}
	} else if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"property_id": property.ID,
			"savings_pct": imaging.SavingsPercent(result.OriginalSize, result.OptimizedSize),
		}).Info("image optimized")
	}

	imageID := uuid.New()
	key := fmt.Sprintf("properties/%s/%s.%s", property.ID, imageID, format.Ext())
	url, err := s.blobs.Put(ctx, key, result.Bytes, format.ContentType())
	if err != nil {
		return nil, err
	}

	image := &entity.PropertyImage{
		ID:               imageID,
		PropertyID:       property.ID,
		OriginalFilename: upload.Filename,
		OriginalSize:     result.OriginalSize,
		OptimizedSize:    result.OptimizedSize,
		Width:            result.Width,
		Height:           result.Height,
		Format:           string(format),
		Quality:          s.imageOpts.Quality,
		ObjectKey:        key,
		URL:              url,
	}

	if thumb := imaging.Thumbnail(upload.Data, imaging.ThumbnailWidth, imaging.ThumbnailHeight, imaging.ThumbnailQuality); thumb != nil {
		thumbKey := fmt.Sprintf("properties/%s/%s_thumb.webp", property.ID, imageID)
		thumbURL, err := s.blobs.Put(ctx, thumbKey, thumb.Bytes, imaging.FormatWEBP.ContentType())
		if err == nil {
			image.ThumbObjectKey = &thumbKey
			image.ThumbURL = &thumbURL
		} else if s.logger != nil {
			s.logger.WithError(err).WithField("property_id", property.ID).Warn("thumbnail upload failed")
		}
	}

	if err := s.images.Create(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *PropertyService) RemoveImage(ctx context.Context, ownerID, propertyID, imageID uuid.UUID) error {
	if _, err := s.owned(ctx, ownerID, propertyID); err != nil {
		return err
	}

	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return err
	}
	if image == nil || image.PropertyID != propertyID {
		return ErrImageNotFound
	}

	s.removeBlobs(ctx, image)
	return s.images.Delete(ctx, image.ID)
}

func (s *PropertyService) owned(ctx context.Context, ownerID, propertyID uuid.UUID) (*entity.Property, error) {
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}
	if property.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return property, nil
}

func (s *PropertyService) removeBlobs(ctx context.Context, image *entity.PropertyImage) {
	if err := s.blobs.Remove(ctx, image.ObjectKey); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("key", image.ObjectKey).Warn("blob removal failed")
	}
	if image.ThumbObjectKey != nil {
		if err := s.blobs.Remove(ctx, *image.ThumbObjectKey); err != nil && s.logger != nil {
			s.logger.WithError(err).WithField("key", *image.ThumbObjectKey).Warn("blob removal failed")
		}
	}
}

func formatFromFilename(filename string) imaging.Format {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".png"):
		return imaging.FormatPNG
	case strings.HasSuffix(name, ".webp"):
		return imaging.FormatWEBP
	default:
		return imaging.FormatJPEG
	}
}
