package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrRikshawNotFound             = errors.New("rikshaw not found")
	ErrRikshawManufacturerEmpty    = errors.New("manufacturer is required")
	ErrRikshawModelEmpty           = errors.New("model is required")
	ErrRikshawEngineNumberEmpty    = errors.New("engine number is required")
	ErrRikshawChassisNumberEmpty   = errors.New("chassis number is required")
	ErrRikshawPurchasePriceInvalid = errors.New("purchase price must be positive")
	ErrRikshawEngineNumberTaken    = errors.New("a rikshaw with this engine number already exists")
	ErrRikshawChassisNumberTaken   = errors.New("a rikshaw with this chassis number already exists")
	ErrRikshawRegistrationTaken    = errors.New("a rikshaw with this registration number already exists")
	ErrRikshawAlreadySold          = errors.New("rikshaw is already sold")
	ErrRikshawIdentityImmutable    = errors.New("engine and chassis numbers cannot be changed")
	ErrRikshawAvailabilityInvalid  = errors.New("availability must be unsold or sold")
)

// Availability is the lifecycle flag of a vehicle
type Availability string

const (
	AvailabilityUnsold Availability = "unsold"
	AvailabilitySold   Availability = "sold"
)

// IsValid reports whether a is a known availability
func (a Availability) IsValid() bool {
	return a == AvailabilityUnsold || a == AvailabilitySold
}

type Rikshaw struct {
	ID                 int32            `json:"id"`
	Manufacturer       string           `json:"manufacturer"`
	Model              string           `json:"model"`
	Type               string           `json:"type"`
	EngineNumber       string           `json:"engineNumber"`
	ChassisNumber      string           `json:"chassisNumber"`
	RegistrationNumber *string          `json:"registrationNumber,omitempty"`
	Availability       Availability     `json:"availability"`
	PurchasePrice      decimal.Decimal  `json:"purchasePrice"`
	SalePrice          *decimal.Decimal `json:"salePrice,omitempty"`
	PhotoPath          *string          `json:"photoPath,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Normalize trims the identity and descriptive fields in place
func (r *Rikshaw) Normalize() {
	r.Manufacturer = strings.TrimSpace(r.Manufacturer)
	r.Model = strings.TrimSpace(r.Model)
	r.Type = strings.TrimSpace(r.Type)
	r.EngineNumber = strings.ToUpper(strings.TrimSpace(r.EngineNumber))
	r.ChassisNumber = strings.ToUpper(strings.TrimSpace(r.ChassisNumber))
	if r.RegistrationNumber != nil {
		reg := strings.ToUpper(strings.TrimSpace(*r.RegistrationNumber))
		if reg == "" {
			r.RegistrationNumber = nil
		} else {
			r.RegistrationNumber = &reg
		}
	}
}

func (r *Rikshaw) Validate() error {
	if r.Manufacturer == "" {
		return Invalid("manufacturer", ErrRikshawManufacturerEmpty)
	}
	if r.Model == "" {
		return Invalid("model", ErrRikshawModelEmpty)
	}
	if r.EngineNumber == "" {
		return Invalid("engineNumber", ErrRikshawEngineNumberEmpty)
	}
	if r.ChassisNumber == "" {
		return Invalid("chassisNumber", ErrRikshawChassisNumberEmpty)
	}
	if r.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return Invalid("purchasePrice", ErrRikshawPurchasePriceInvalid)
	}
	if !r.Availability.IsValid() {
		return Invalid("availability", ErrRikshawAvailabilityInvalid)
	}
	return nil
}

// IsSold reports whether the vehicle has been sold
func (r *Rikshaw) IsSold() bool {
	return r.Availability == AvailabilitySold
}

// Profit returns sale price minus cost basis, or zero while unsold
func (r *Rikshaw) Profit() decimal.Decimal {
	if !r.IsSold() || r.SalePrice == nil {
		return decimal.Zero
	}
	return r.SalePrice.Sub(r.PurchasePrice)
}

type RikshawRepository interface {
	Create(ctx context.Context, rikshaw *Rikshaw) (*Rikshaw, error)
	GetByID(ctx context.Context, id int32) (*Rikshaw, error)
	GetByEngineNumber(ctx context.Context, engineNumber string) (*Rikshaw, error)
	GetByChassisNumber(ctx context.Context, chassisNumber string) (*Rikshaw, error)
	GetByRegistrationNumber(ctx context.Context, registrationNumber string) (*Rikshaw, error)
	GetAll(ctx context.Context, availability *Availability) ([]*Rikshaw, error)
	Update(ctx context.Context, rikshaw *Rikshaw) (*Rikshaw, error)
	UpdatePhoto(ctx context.Context, id int32, photoPath *string) error
	Delete(ctx context.Context, id int32) error
}
