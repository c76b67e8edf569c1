package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
	"github.com/rikshawmart/rikshawmart-backend/internal/repository/storage"
	"github.com/rikshawmart/rikshawmart-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRikshawHandler(store storage.ObjectStore) (*RikshawHandler, *testutil.MockRikshawRepository) {
	rikshawRepo := testutil.NewMockRikshawRepository()
	images := service.NewImageService(store, 15*time.Minute)
	return NewRikshawHandler(service.NewRikshawService(rikshawRepo, images)), rikshawRepo
}

func unsoldRikshaw(id int32, engine, chassis string) *domain.Rikshaw {
	return &domain.Rikshaw{
		ID:            id,
		Manufacturer:  "Sazgar",
		Model:         "King",
		EngineNumber:  engine,
		ChassisNumber: chassis,
		Availability:  domain.AvailabilityUnsold,
		PurchasePrice: decimal.NewFromInt(250000),
	}
}

// createTestImageData creates a valid JPEG image for testing
func createTestImageData(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

// createMultipartForm creates a multipart form with file data
func createMultipartForm(fieldName, filename string, data []byte) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile(fieldName, filename)
	_, _ = part.Write(data)
	_ = writer.Close()
	return body, writer.FormDataContentType()
}

func newUploadContext(e *echo.Echo, id, field, filename string, data []byte) (echo.Context, *httptest.ResponseRecorder) {
	body, contentType := createMultipartForm(field, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rikshaws/"+id+"/photo", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestCreateRikshaw_Success(t *testing.T) {
	e := newTestEcho()
	h, rikshawRepo := newRikshawHandler(nil)

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/rikshaws",
		`{"manufacturer":"Sazgar","model":"King","type":"Loader","engineNumber":" e-100 ","chassisNumber":"c-200","purchasePrice":"250000"}`, "")

	require.NoError(t, h.CreateRikshaw(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Rikshaw
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.AvailabilityUnsold, created.Availability)
	assert.Equal(t, "E-100", created.EngineNumber)
	assert.True(t, created.PurchasePrice.Equal(decimal.NewFromInt(250000)))
	assert.Len(t, rikshawRepo.Rikshaws, 1)
}

func TestCreateRikshaw_Validation(t *testing.T) {
	e := newTestEcho()
	h, _ := newRikshawHandler(nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing engine number", `{"manufacturer":"Sazgar","model":"King","chassisNumber":"C1","purchasePrice":100}`, "engineNumber"},
		{"zero purchase price", `{"manufacturer":"Sazgar","model":"King","engineNumber":"E1","chassisNumber":"C1","purchasePrice":0}`, "purchasePrice"},
		{"negative purchase price", `{"manufacturer":"Sazgar","model":"King","engineNumber":"E1","chassisNumber":"C1","purchasePrice":"-5"}`, "purchasePrice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(e, http.MethodPost, "/api/v1/rikshaws", tt.body, "")
			require.NoError(t, h.CreateRikshaw(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, problemFields(decodeProblem(t, rec)), tt.field)
		})
	}
}

func TestCreateRikshaw_DuplicateChassis(t *testing.T) {
	e := newTestEcho()
	h, rikshawRepo := newRikshawHandler(nil)
	rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))

	c, rec := newJSONContext(e, http.MethodPost, "/api/v1/rikshaws",
		`{"manufacturer":"Sazgar","model":"King","engineNumber":"E2","chassisNumber":"c1","purchasePrice":100}`, "")

	require.NoError(t, h.CreateRikshaw(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	problem := decodeProblem(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "chassisNumber", problem.Errors[0].Field)
}

func TestGetRikshaws_FilterByAvailability(t *testing.T) {
	e := newTestEcho()
	h, rikshawRepo := newRikshawHandler(nil)
	rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))
	sold := unsoldRikshaw(2, "E2", "C2")
	sold.Availability = domain.AvailabilitySold
	rikshawRepo.AddRikshaw(sold)

	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/rikshaws?availability=sold", "", "")
	require.NoError(t, h.GetRikshaws(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var rikshaws []domain.Rikshaw
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rikshaws))
	require.Len(t, rikshaws, 1)
	assert.Equal(t, int32(2), rikshaws[0].ID)

	c, rec = newJSONContext(e, http.MethodGet, "/api/v1/rikshaws?availability=stolen", "", "")
	require.NoError(t, h.GetRikshaws(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRikshaw_IdentityImmutable(t *testing.T) {
	e := newTestEcho()
	h, rikshawRepo := newRikshawHandler(nil)
	rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))

	c, rec := newJSONContext(e, http.MethodPut, "/api/v1/rikshaws/1",
		`{"manufacturer":"Sazgar","model":"King","engineNumber":"E9","chassisNumber":"C1","purchasePrice":100}`, "1")
	require.NoError(t, h.UpdateRikshaw(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"engineNumber"}, problemFields(decodeProblem(t, rec)))

	c, rec = newJSONContext(e, http.MethodPut, "/api/v1/rikshaws/1",
		`{"manufacturer":"Sazgar","model":"King Plus","engineNumber":"E1","chassisNumber":"C1","registrationNumber":"LEA-1234","purchasePrice":260000}`, "1")
	require.NoError(t, h.UpdateRikshaw(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "King Plus", rikshawRepo.Rikshaws[1].Model)
}

func TestDeleteRikshaw(t *testing.T) {
	e := newTestEcho()
	h, rikshawRepo := newRikshawHandler(nil)
	rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))
	sold := unsoldRikshaw(2, "E2", "C2")
	sold.Availability = domain.AvailabilitySold
	rikshawRepo.AddRikshaw(sold)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"unsold is removed", "1", http.StatusNoContent},
		{"sold is kept", "2", http.StatusConflict},
		{"missing", "3", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(e, http.MethodDelete, "/api/v1/rikshaws/"+tt.id, "", tt.id)
			require.NoError(t, h.DeleteRikshaw(c))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.NotContains(t, rikshawRepo.Rikshaws, int32(1))
	assert.Contains(t, rikshawRepo.Rikshaws, int32(2))
}

func TestUploadPhoto_Success(t *testing.T) {
	e := newTestEcho()
	store := testutil.NewMockObjectStore()
	h, rikshawRepo := newRikshawHandler(store)
	rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))

	c, rec := newUploadContext(e, "1", "file", "front.jpg", createTestImageData(400, 300))
	require.NoError(t, h.UploadPhoto(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var photo service.VehiclePhoto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &photo))
	assert.True(t, strings.HasPrefix(photo.Path, "rikshaws/1/"))
	assert.NotEmpty(t, photo.DisplayURL)
	assert.NotEmpty(t, photo.ThumbnailURL)
	require.NotNil(t, rikshawRepo.Rikshaws[1].PhotoPath)
	assert.Equal(t, photo.Path, *rikshawRepo.Rikshaws[1].PhotoPath)

	c, rec = newJSONContext(e, http.MethodGet, "/api/v1/rikshaws/1/photo", "", "1")
	require.NoError(t, h.GetPhoto(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadPhoto_Rejections(t *testing.T) {
	e := newTestEcho()

	t.Run("storage not configured", func(t *testing.T) {
		h, rikshawRepo := newRikshawHandler(nil)
		rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))
		c, rec := newUploadContext(e, "1", "file", "front.jpg", createTestImageData(400, 300))
		require.NoError(t, h.UploadPhoto(c))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		h, rikshawRepo := newRikshawHandler(testutil.NewMockObjectStore())
		rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))
		c, rec := newUploadContext(e, "1", "image", "front.jpg", createTestImageData(400, 300))
		require.NoError(t, h.UploadPhoto(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"file"}, problemFields(decodeProblem(t, rec)))
	})

	t.Run("image too small", func(t *testing.T) {
		h, rikshawRepo := newRikshawHandler(testutil.NewMockObjectStore())
		rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))
		c, rec := newUploadContext(e, "1", "file", "front.jpg", createTestImageData(50, 50))
		require.NoError(t, h.UploadPhoto(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		problem := decodeProblem(t, rec)
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, service.ErrImageTooSmall.Error(), problem.Errors[0].Message)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		h, rikshawRepo := newRikshawHandler(testutil.NewMockObjectStore())
		rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))
		c, rec := newUploadContext(e, "1", "file", "front.gif", createTestImageData(400, 300))
		require.NoError(t, h.UploadPhoto(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetPhoto_NoPhoto(t *testing.T) {
	e := newTestEcho()
	h, rikshawRepo := newRikshawHandler(testutil.NewMockObjectStore())
	rikshawRepo.AddRikshaw(unsoldRikshaw(1, "E1", "C1"))

	c, rec := newJSONContext(e, http.MethodGet, "/api/v1/rikshaws/1/photo", "", "1")
	require.NoError(t, h.GetPhoto(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
