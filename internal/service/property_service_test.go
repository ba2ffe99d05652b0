package service_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"estatemap/internal/entity"
	"estatemap/internal/imaging"
	"estatemap/internal/repository"
	"estatemap/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type propertyFixture struct {
	svc   *service.PropertyService
	blobs *fakeBlobStore
	db    *gorm.DB
	owner *entity.User
}

func newPropertyFixture(t *testing.T) *propertyFixture {
	t.Helper()
	db := openTestDB(t)
	blobs := newFakeBlobStore()

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	owner := &entity.User{
		Email:    fmt.Sprintf("owner-%s@example.com", uuid.NewString()),
		IsActive: true,
		Role:     entity.UserRoleUser,
	}
	require.NoError(t, db.Create(owner).Error)

	svc := service.NewPropertyService(
		repository.NewPropertyRepository(db),
		repository.NewPropertyImageRepository(db),
		blobs,
		imaging.NewUploadValidator(),
		imaging.DefaultOptions(),
		quiet,
	)
	return &propertyFixture{svc: svc, blobs: blobs, db: db, owner: owner}
}

func (f *propertyFixture) createProperty(t *testing.T) *entity.Property {
	t.Helper()
	property, err := f.svc.Create(context.Background(), f.owner.ID, service.CreatePropertyInput{
		Title:       "Casa en el centro",
		Price:       250000,
		ListingType: entity.ListingSale,
		Latitude:    19.4326,
		Longitude:   -99.1332,
		City:        "CDMX",
	})
	require.NoError(t, err)
	return property
}

func TestPropertyService_CreateAndGet(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	property := f.createProperty(t)

	loaded, err := f.svc.Get(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casa en el centro", loaded.Title)
	assert.Equal(t, f.owner.ID, loaded.OwnerID)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrPropertyNotFound)
}

func TestPropertyService_UpdateRequiresOwnership(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	property := f.createProperty(t)

	_, err := f.svc.Update(ctx, uuid.New(), property.ID, service.CreatePropertyInput{Title: "Hijacked"})
	assert.ErrorIs(t, err, service.ErrNotOwner)

	updated, err := f.svc.Update(ctx, f.owner.ID, property.ID, service.CreatePropertyInput{
		Title:       "Casa renovada",
		Price:       275000,
		ListingType: entity.ListingRent,
	})
	require.NoError(t, err)
	assert.Equal(t, "Casa renovada", updated.Title)
	assert.Equal(t, entity.ListingRent, updated.ListingType)
}

func TestPropertyService_AddImageOptimizesAndStores(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	property := f.createProperty(t)

	raw := makePNG(t, 2400, 1200)
	image, err := f.svc.AddImage(ctx, f.owner.ID, property.ID, service.ImageUpload{
		Filename: "frente.png",
		Data:     raw,
	})
	require.NoError(t, err)

	assert.Equal(t, "webp", image.Format)
	assert.Equal(t, 1920, image.Width)
	assert.Equal(t, 960, image.Height)
	assert.Equal(t, int64(len(raw)), image.OriginalSize)

	expectedKey := fmt.Sprintf("properties/%s/%s.webp", property.ID, image.ID)
	assert.Equal(t, expectedKey, image.ObjectKey)
	assert.True(t, f.blobs.has(expectedKey))
	assert.Equal(t, "image/webp", f.blobs.Types[expectedKey])

	require.NotNil(t, image.ThumbObjectKey)
	assert.True(t, strings.HasSuffix(*image.ThumbObjectKey, "_thumb.webp"))
	assert.True(t, f.blobs.has(*image.ThumbObjectKey))

	loaded, err := f.svc.Get(ctx, property.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 1)
	assert.Equal(t, image.ID, loaded.Images[0].ID)
}

func TestPropertyService_AddImageRejectsInvalidUploads(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	property := f.createProperty(t)

	t.Run("undecodable bytes", func(t *testing.T) {
		_, err := f.svc.AddImage(ctx, f.owner.ID, property.ID, service.ImageUpload{
			Filename: "nota.png",
			Data:     []byte("definitely not an image"),
		})
		var validationErr *imaging.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "dimensions", validationErr.Check)
	})

	t.Run("too small", func(t *testing.T) {
		_, err := f.svc.AddImage(ctx, f.owner.ID, property.ID, service.ImageUpload{
			Filename: "tiny.png",
			Data:     makePNG(t, 80, 80),
		})
		var validationErr *imaging.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "dimensions", validationErr.Check)
	})

	t.Run("disallowed extension", func(t *testing.T) {
		_, err := f.svc.AddImage(ctx, f.owner.ID, property.ID, service.ImageUpload{
			Filename: "plano.tiff",
			Data:     makePNG(t, 400, 400),
		})
		var validationErr *imaging.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "format", validationErr.Check)
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := f.svc.AddImage(ctx, uuid.New(), property.ID, service.ImageUpload{
			Filename: "frente.png",
			Data:     makePNG(t, 400, 400),
		})
		assert.ErrorIs(t, err, service.ErrNotOwner)
	})
}

func TestPropertyService_AddImageFallsBackOnPipelineFailure(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	property := f.createProperty(t)

	// A PNG cut off after its header still yields dimensions from
	// DecodeConfig, so validation passes, but the full decode fails and
	// the original bytes are stored untouched.
	truncated := makePNG(t, 400, 400)[:60]
	image, err := f.svc.AddImage(ctx, f.owner.ID, property.ID, service.ImageUpload{
		Filename: "roto.png",
		Data:     truncated,
	})
	require.NoError(t, err)

	assert.Equal(t, "png", image.Format)
	assert.Equal(t, int64(len(truncated)), image.OptimizedSize)
	assert.Equal(t, truncated, f.blobs.Objects[image.ObjectKey])
	assert.Nil(t, image.ThumbObjectKey, "no thumbnail when the decode fails")
}

func TestPropertyService_RemoveImageDeletesBlobs(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	property := f.createProperty(t)

	image, err := f.svc.AddImage(ctx, f.owner.ID, property.ID, service.ImageUpload{
		Filename: "frente.png",
		Data:     makePNG(t, 400, 400),
	})
	require.NoError(t, err)
	require.NotNil(t, image.ThumbObjectKey)

	require.NoError(t, f.svc.RemoveImage(ctx, f.owner.ID, property.ID, image.ID))
	assert.False(t, f.blobs.has(image.ObjectKey))
	assert.False(t, f.blobs.has(*image.ThumbObjectKey))

	err = f.svc.RemoveImage(ctx, f.owner.ID, property.ID, image.ID)
	assert.ErrorIs(t, err, service.ErrImageNotFound)
}

func TestPropertyService_DeleteRemovesImagesAndBlobs(t *testing.T) {
	f := newPropertyFixture(t)
	ctx := context.Background()
	property := f.createProperty(t)

	image, err := f.svc.AddImage(ctx, f.owner.ID, property.ID, service.ImageUpload{
		Filename: "frente.png",
		Data:     makePNG(t, 400, 400),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, property.ID))

	_, err = f.svc.Get(ctx, property.ID)
	assert.ErrorIs(t, err, service.ErrPropertyNotFound)
	assert.False(t, f.blobs.has(image.ObjectKey))
}
