package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RikshawService handles vehicle inventory business logic
type RikshawService struct {
	rikshawRepo    domain.RikshawRepository
	images         *ImageService
	eventPublisher websocket.EventPublisher
}

// NewRikshawService creates a new RikshawService. images may be nil when photo storage is disabled.
func NewRikshawService(rikshawRepo domain.RikshawRepository, images *ImageService) *RikshawService {
	return &RikshawService{
		rikshawRepo: rikshawRepo,
		images:      images,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RikshawService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *RikshawService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.TopicDashboard, event)
	}
}

// RikshawInput contains the editable fields of a vehicle
type RikshawInput struct {
	Manufacturer       string
	Model              string
	Type               string
	EngineNumber       string
	ChassisNumber      string
	RegistrationNumber *string
	PurchasePrice      decimal.Decimal
}

// CreateRikshaw adds an unsold vehicle after checking its identity numbers are unused
func (s *RikshawService) CreateRikshaw(ctx context.Context, input RikshawInput) (*domain.Rikshaw, error) {
	rikshaw := &domain.Rikshaw{
		Manufacturer:       input.Manufacturer,
		Model:              input.Model,
		Type:               input.Type,
		EngineNumber:       input.EngineNumber,
		ChassisNumber:      input.ChassisNumber,
		RegistrationNumber: input.RegistrationNumber,
		PurchasePrice:      input.PurchasePrice,
		Availability:       domain.AvailabilityUnsold,
	}
	rikshaw.Normalize()
	if err := rikshaw.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, rikshaw, 0); err != nil {
		return nil, err
	}

	created, err := s.rikshawRepo.Create(ctx, rikshaw)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.RikshawUpdated(created))
	return created, nil
}

// UpdateRikshaw changes descriptive fields. Engine and chassis numbers identify
// the vehicle and cannot change; availability and sale price follow the sale workflow.
func (s *RikshawService) UpdateRikshaw(ctx context.Context, id int32, input RikshawInput) (*domain.Rikshaw, error) {
	existing, err := s.rikshawRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewLoadError("rikshaw", err)
	}

	updated := *existing
	updated.Manufacturer = input.Manufacturer
	updated.Model = input.Model
	updated.Type = input.Type
	updated.EngineNumber = input.EngineNumber
	updated.ChassisNumber = input.ChassisNumber
	updated.RegistrationNumber = input.RegistrationNumber
	updated.PurchasePrice = input.PurchasePrice
	updated.Normalize()

	if updated.EngineNumber != existing.EngineNumber {
		return nil, domain.Invalid("engineNumber", domain.ErrRikshawIdentityImmutable)
	}
	if updated.ChassisNumber != existing.ChassisNumber {
		return nil, domain.Invalid("chassisNumber", domain.ErrRikshawIdentityImmutable)
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, &updated, existing.ID); err != nil {
		return nil, err
	}

	result, err := s.rikshawRepo.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.RikshawUpdated(result))
	return result, nil
}

// checkUnique looks up engine, chassis and registration numbers before any write; selfID is skipped
func (s *RikshawService) checkUnique(ctx context.Context, rikshaw *domain.Rikshaw, selfID int32) error {
	checks := []struct {
		field  string
		value  *string
		lookup func(context.Context, string) (*domain.Rikshaw, error)
		taken  error
	}{
		{"engineNumber", &rikshaw.EngineNumber, s.rikshawRepo.GetByEngineNumber, domain.ErrRikshawEngineNumberTaken},
		{"chassisNumber", &rikshaw.ChassisNumber, s.rikshawRepo.GetByChassisNumber, domain.ErrRikshawChassisNumberTaken},
		{"registrationNumber", rikshaw.RegistrationNumber, s.rikshawRepo.GetByRegistrationNumber, domain.ErrRikshawRegistrationTaken},
	}

	for _, c := range checks {
		if c.value == nil {
			continue
		}
		found, err := c.lookup(ctx, *c.value)
		if err != nil {
			if errors.Is(err, domain.ErrRikshawNotFound) {
				continue
			}
			return domain.NewLoadError("rikshaw by "+c.field, err)
		}
		if found.ID != selfID {
			return domain.Invalid(c.field, c.taken)
		}
	}
	return nil
}

// GetRikshaw retrieves a vehicle by ID
func (s *RikshawService) GetRikshaw(ctx context.Context, id int32) (*domain.Rikshaw, error) {
	rikshaw, err := s.rikshawRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewLoadError("rikshaw", err)
	}
	return rikshaw, nil
}

// ListRikshaws returns the inventory, optionally filtered by availability
func (s *RikshawService) ListRikshaws(ctx context.Context, availability *domain.Availability) ([]*domain.Rikshaw, error) {
	if availability != nil && !availability.IsValid() {
		return nil, domain.Invalid("availability", domain.ErrRikshawAvailabilityInvalid)
	}
	rikshaws, err := s.rikshawRepo.GetAll(ctx, availability)
	if err != nil {
		return nil, domain.NewLoadError("rikshaws", err)
	}
	return rikshaws, nil
}

// DeleteRikshaw removes an unsold vehicle and its photo. Sold vehicles belong to a plan and stay.
func (s *RikshawService) DeleteRikshaw(ctx context.Context, id int32) error {
	rikshaw, err := s.GetRikshaw(ctx, id)
	if err != nil {
		return err
	}
	if rikshaw.IsSold() {
		return domain.ErrRikshawAlreadySold
	}
	if err := s.rikshawRepo.Delete(ctx, id); err != nil {
		return err
	}
	if rikshaw.PhotoPath != nil {
		s.images.DeleteAllVariants(ctx, *rikshaw.PhotoPath)
	}
	s.publishEvent(websocket.RikshawDeleted(map[string]int32{"id": id}))
	return nil
}

// UploadPhoto replaces the vehicle's photo with a resized upload
func (s *RikshawService) UploadPhoto(ctx context.Context, id int32, data []byte, filename string) (*VehiclePhoto, error) {
	if !s.images.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}
	rikshaw, err := s.GetRikshaw(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := rikshaw.PhotoPath
	path, err := s.images.ProcessAndUpload(ctx, fmt.Sprintf("rikshaws/%d", id), data, filename)
	if err != nil {
		return nil, err
	}
	if err := s.rikshawRepo.UpdatePhoto(ctx, id, &path); err != nil {
		s.images.DeleteAllVariants(ctx, path)
		return nil, err
	}
	if previous != nil && *previous != path {
		s.images.DeleteAllVariants(ctx, *previous)
	}

	log.Info().Int32("rikshaw_id", id).Str("path", path).Msg("Vehicle photo uploaded")
	return s.images.Photo(ctx, path)
}

// GetPhoto returns temporary URLs for the vehicle's photo
func (s *RikshawService) GetPhoto(ctx context.Context, id int32) (*VehiclePhoto, error) {
	rikshaw, err := s.GetRikshaw(ctx, id)
	if err != nil {
		return nil, err
	}
	if rikshaw.PhotoPath == nil {
		return nil, domain.ErrNotFound
	}
	return s.images.Photo(ctx, *rikshaw.PhotoPath)
}
