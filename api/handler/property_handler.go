package handler

import (
	"errors"
	"io"
	"net/http"

	"estatemap/api/middleware"
	"estatemap/internal/dto"
	"estatemap/internal/entity"
	"estatemap/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type PropertyHandler struct {
	Service  *service.PropertyService
	Validate *validator.Validate
}

func NewPropertyHandler(svc *service.PropertyService, validate *validator.Validate) *PropertyHandler {
	return &PropertyHandler{Service: svc, Validate: validate}
}

func (h *PropertyHandler) Create(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.PropertyRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	property, err := h.Service.Create(c.Request().Context(), userID, propertyInputFromRequest(req))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.PropertyResponseFromEntity(property))
}

func (h *PropertyHandler) Get(c echo.Context) error {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid property id"))
	}
	property, err := h.Service.Get(c.Request().Context(), propertyID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.PropertyResponseFromEntity(property))
}

func (h *PropertyHandler) List(c echo.Context) error {
	limit, offset := parseLimitOffset(c)
	properties, err := h.Service.List(c.Request().Context(), limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.PropertyResponsesFromEntities(properties))
}

func (h *PropertyHandler) ListMine(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	limit, offset := parseLimitOffset(c)
	properties, err := h.Service.ListByOwner(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.PropertyResponsesFromEntities(properties))
}

func (h *PropertyHandler) Update(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid property id"))
	}
	var req dto.PropertyRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	property, err := h.Service.Update(c.Request().Context(), userID, propertyID, propertyInputFromRequest(req))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.PropertyResponseFromEntity(property))
}

func (h *PropertyHandler) Delete(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid property id"))
	}
	if err := h.Service.Delete(c.Request().Context(), userID, propertyID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PropertyHandler) UploadImage(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid property id"))
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("missing image file"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	image, err := h.Service.AddImage(c.Request().Context(), userID, propertyID, service.ImageUpload{
		Filename: fileHeader.Filename,
		Data:     data,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.PropertyImageResponseFromEntity(image))
}

func (h *PropertyHandler) DeleteImage(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid property id"))
	}
	imageID, err := uuid.Parse(c.Param("imageId"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid image id"))
	}
	if err := h.Service.RemoveImage(c.Request().Context(), userID, propertyID, imageID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PropertyHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func propertyInputFromRequest(req dto.PropertyRequest) service.CreatePropertyInput {
	return service.CreatePropertyInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ListingType: entity.ListingType(req.ListingType),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Polygon:     datatypes.JSON(req.Polygon),
		Address:     req.Address,
		City:        req.City,
		Province:    req.Province,
	}
}
