package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for image.Decode
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rikshawmart/rikshawmart-backend/internal/repository/storage"
)

const (
	MaxImageSize   = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 200
	MinImageHeight = 150
	ThumbnailWidth = 300
	DisplayWidth   = 1200
	JPEGQuality    = 85
)

var (
	ErrImageTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat             = errors.New("invalid format. Supported: JPEG, PNG")
	ErrImageTooSmall             = errors.New("image too small. Minimum 200x150 pixels")
	ErrInvalidImageData          = errors.New("invalid image data")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// VehiclePhoto holds the stored path of a vehicle photo and temporary URLs for its variants
type VehiclePhoto struct {
	Path         string `json:"path"`
	DisplayURL   string `json:"displayUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ImageService resizes vehicle photos and keeps them in object storage
type ImageService struct {
	store     storage.ObjectStore
	urlExpiry time.Duration
}

// NewImageService creates a new ImageService; a nil store disables uploads
func NewImageService(store storage.ObjectStore, urlExpiry time.Duration) *ImageService {
	return &ImageService{store: store, urlExpiry: urlExpiry}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *ImageService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// ValidateImage validates image format, size and dimensions
func (s *ImageService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

func (s *ImageService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}
	return img, nil
}

// ProcessAndUpload stores a display and a thumbnail JPEG under prefix and
// returns the display path. The thumbnail sits next to it with a _thumb suffix.
func (s *ImageService) ProcessAndUpload(ctx context.Context, prefix string, data []byte, filename string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrImageStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("%s/%s", prefix, uuid.New().String())
	displayPath := base + ".jpg"

	if err := s.uploadVariant(ctx, displayPath, img, DisplayWidth); err != nil {
		return "", err
	}
	if err := s.uploadVariant(ctx, thumbnailPath(displayPath), img, ThumbnailWidth); err != nil {
		_ = s.store.Delete(ctx, displayPath)
		return "", err
	}
	return displayPath, nil
}

func (s *ImageService) uploadVariant(ctx context.Context, objectPath string, img image.Image, maxWidth int) error {
	processed := img
	if img.Bounds().Dx() > maxWidth {
		processed = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if _, err := s.store.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	return nil
}

// DeleteAllVariants removes the display image and its thumbnail. Best effort.
func (s *ImageService) DeleteAllVariants(ctx context.Context, displayPath string) {
	if displayPath == "" || !s.IsEnabled() {
		return
	}
	_ = s.store.Delete(ctx, displayPath)
	_ = s.store.Delete(ctx, thumbnailPath(displayPath))
}

// Photo resolves a stored display path to temporary URLs
func (s *ImageService) Photo(ctx context.Context, displayPath string) (*VehiclePhoto, error) {
	if !s.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}
	display, err := s.store.GeneratePresignedURL(ctx, displayPath, s.urlExpiry)
	if err != nil {
		return nil, err
	}
	thumb, err := s.store.GeneratePresignedURL(ctx, thumbnailPath(displayPath), s.urlExpiry)
	if err != nil {
		return nil, err
	}
	return &VehiclePhoto{Path: displayPath, DisplayURL: display, ThumbnailURL: thumb}, nil
}

// thumbnailPath maps "a/b/id.jpg" to "a/b/id_thumb.jpg"
func thumbnailPath(displayPath string) string {
	return strings.TrimSuffix(displayPath, ".jpg") + "_thumb.jpg"
}

// GetContentType returns the content type for a file extension
func GetContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := AllowedExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
