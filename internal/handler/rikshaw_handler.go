package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RikshawHandler handles vehicle inventory HTTP requests
type RikshawHandler struct {
	rikshawService *service.RikshawService
}

// NewRikshawHandler creates a new RikshawHandler
func NewRikshawHandler(rikshawService *service.RikshawService) *RikshawHandler {
	return &RikshawHandler{rikshawService: rikshawService}
}

// RikshawRequest represents the create and update vehicle request body
type RikshawRequest struct {
	Manufacturer       string          `json:"manufacturer" validate:"required,max=100"`
	Model              string          `json:"model" validate:"required,max=100"`
	Type               string          `json:"type" validate:"max=50"`
	EngineNumber       string          `json:"engineNumber" validate:"required,max=100"`
	ChassisNumber      string          `json:"chassisNumber" validate:"required,max=100"`
	RegistrationNumber *string         `json:"registrationNumber,omitempty" validate:"omitempty,max=50"`
	PurchasePrice      decimal.Decimal `json:"purchasePrice"`
}

func (r RikshawRequest) toInput() service.RikshawInput {
	return service.RikshawInput{
		Manufacturer:       r.Manufacturer,
		Model:              r.Model,
		Type:               r.Type,
		EngineNumber:       r.EngineNumber,
		ChassisNumber:      r.ChassisNumber,
		RegistrationNumber: r.RegistrationNumber,
		PurchasePrice:      r.PurchasePrice,
	}
}

// CreateRikshaw handles POST /api/v1/rikshaws
func (h *RikshawHandler) CreateRikshaw(c echo.Context) error {
	var req RikshawRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	rikshaw, err := h.rikshawService.CreateRikshaw(c.Request().Context(), req.toInput())
	if err != nil {
		return respondError(c, err, "create rikshaw")
	}

	log.Info().Int32("rikshaw_id", rikshaw.ID).Str("engine_number", rikshaw.EngineNumber).Msg("Rikshaw added to inventory")
	return c.JSON(http.StatusCreated, rikshaw)
}

// GetRikshaws handles GET /api/v1/rikshaws?availability=unsold|sold
func (h *RikshawHandler) GetRikshaws(c echo.Context) error {
	var availability *domain.Availability
	if v := c.QueryParam("availability"); v != "" {
		a := domain.Availability(v)
		availability = &a
	}

	rikshaws, err := h.rikshawService.ListRikshaws(c.Request().Context(), availability)
	if err != nil {
		return respondError(c, err, "list rikshaws")
	}
	return c.JSON(http.StatusOK, rikshaws)
}

// GetRikshaw handles GET /api/v1/rikshaws/:id
func (h *RikshawHandler) GetRikshaw(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid rikshaw ID", nil)
	}

	rikshaw, err := h.rikshawService.GetRikshaw(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get rikshaw")
	}
	return c.JSON(http.StatusOK, rikshaw)
}

// UpdateRikshaw handles PUT /api/v1/rikshaws/:id
func (h *RikshawHandler) UpdateRikshaw(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid rikshaw ID", nil)
	}

	var req RikshawRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	rikshaw, err := h.rikshawService.UpdateRikshaw(c.Request().Context(), id, req.toInput())
	if err != nil {
		return respondError(c, err, "update rikshaw")
	}
	return c.JSON(http.StatusOK, rikshaw)
}

// DeleteRikshaw handles DELETE /api/v1/rikshaws/:id
func (h *RikshawHandler) DeleteRikshaw(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid rikshaw ID", nil)
	}

	if err := h.rikshawService.DeleteRikshaw(c.Request().Context(), id); err != nil {
		return respondError(c, err, "delete rikshaw")
	}

	log.Info().Int32("rikshaw_id", id).Msg("Rikshaw removed from inventory")
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto handles POST /api/v1/rikshaws/:id/photo (multipart field "file")
func (h *RikshawHandler) UploadPhoto(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid rikshaw ID", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > service.MaxImageSize {
		return respondError(c, service.ErrImageTooLarge, "upload photo")
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	photo, err := h.rikshawService.UploadPhoto(c.Request().Context(), id, data, file.Filename)
	if err != nil {
		return respondError(c, err, "upload photo")
	}
	return c.JSON(http.StatusCreated, photo)
}

// GetPhoto handles GET /api/v1/rikshaws/:id/photo
func (h *RikshawHandler) GetPhoto(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid rikshaw ID", nil)
	}

	photo, err := h.rikshawService.GetPhoto(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get photo")
	}
	return c.JSON(http.StatusOK, photo)
}
