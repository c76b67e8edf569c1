package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPlanNotFound            = errors.New("installment plan not found")
	ErrPlanTotalPriceInvalid   = errors.New("total price must be positive")
	ErrPlanAdvanceInvalid      = errors.New("advance amounts cannot be negative")
	ErrPlanAdvanceDateMissing  = errors.New("every advance entry needs a date")
	ErrPlanAdvanceExceedsTotal = errors.New("total advance cannot exceed the total price")
	ErrPlanMonthlyInvalid      = errors.New("monthly installment cannot be negative")
	ErrPlanDurationInvalid     = errors.New("duration cannot be negative")
	ErrPlanScheduleIncomplete  = errors.New("monthly installment requires a duration of at least 1 month")
	ErrPlanCommissionInvalid   = errors.New("showroom commission cannot be negative")
	ErrPlanAgreementDateEmpty  = errors.New("agreement date is required")
	ErrPlanCustomerRequired    = errors.New("customer is required")
	ErrPlanRikshawRequired     = errors.New("rikshaw is required")
)

// PlanStatus is the overall state of a plan, evaluated in priority order
type PlanStatus string

const (
	PlanStatusCompleted      PlanStatus = "Completed"
	PlanStatusAdvancePending PlanStatus = "Advance Pending"
	PlanStatusOverdue        PlanStatus = "Overdue"
	PlanStatusActive         PlanStatus = "Active"
	PlanStatusNotActive      PlanStatus = "Not Active"
)

// IsValid reports whether s is a known plan status
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusCompleted, PlanStatusAdvancePending, PlanStatusOverdue, PlanStatusActive, PlanStatusNotActive:
		return true
	}
	return false
}

// AdvancePayment is one entry of the agreed advance.
// Entry 0 was collected at signing; later entries are still owed.
type AdvancePayment struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// CustomerSnapshot freezes the customer's details at the time of sale
type CustomerSnapshot struct {
	Name       string `json:"name"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// RikshawSnapshot freezes the vehicle's details at the time of sale
type RikshawSnapshot struct {
	Manufacturer       string `json:"manufacturer"`
	Model              string `json:"model"`
	EngineNumber       string `json:"engineNumber"`
	ChassisNumber      string `json:"chassisNumber"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
}

type InstallmentPlan struct {
	ID                 int32            `json:"id"`
	CustomerID         int32            `json:"customerId"`
	RikshawID          int32            `json:"rikshawId"`
	TotalPrice         decimal.Decimal  `json:"totalPrice"`
	AdvancePayments    []AdvancePayment `json:"advancePayments"`
	MonthlyInstallment decimal.Decimal  `json:"monthlyInstallment"`
	DurationMonths     int32            `json:"durationMonths"`
	AgreementDate      time.Time        `json:"agreementDate"`
	ShowroomCommission decimal.Decimal  `json:"showroomCommission"`
	IsCommissionPaid   bool             `json:"isCommissionPaid"`
	// TotalPaidMonthly is a display hint refreshed on every monthly payment write.
	// Reconciliation never reads it.
	TotalPaidMonthly decimal.Decimal  `json:"totalPaidMonthly"`
	Customer         CustomerSnapshot `json:"customer"`
	Rikshaw          RikshawSnapshot  `json:"rikshaw"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// TotalAgreedAdvance sums every advance entry
func (p *InstallmentPlan) TotalAgreedAdvance() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.AdvancePayments {
		total = total.Add(a.Amount)
	}
	return total
}

// InitialCollectedAdvance is the amount taken at signing (entry 0), or zero
func (p *InstallmentPlan) InitialCollectedAdvance() decimal.Decimal {
	if len(p.AdvancePayments) == 0 {
		return decimal.Zero
	}
	return p.AdvancePayments[0].Amount
}

// AdvanceAnchorDate is the date an outstanding advance is considered due:
// the first advance entry's date, or the agreement date when none is recorded.
func (p *InstallmentPlan) AdvanceAnchorDate() time.Time {
	if len(p.AdvancePayments) > 0 && !p.AdvancePayments[0].Date.IsZero() {
		return p.AdvancePayments[0].Date
	}
	return p.AgreementDate
}

// ValidateTerms checks the financial terms of a plan
func (p *InstallmentPlan) ValidateTerms() error {
	if p.TotalPrice.LessThanOrEqual(decimal.Zero) {
		return Invalid("totalPrice", ErrPlanTotalPriceInvalid)
	}
	for _, a := range p.AdvancePayments {
		if a.Amount.IsNegative() {
			return Invalid("advancePayments", ErrPlanAdvanceInvalid)
		}
		if a.Date.IsZero() {
			return Invalid("advancePayments", ErrPlanAdvanceDateMissing)
		}
	}
	if p.TotalAgreedAdvance().GreaterThan(p.TotalPrice) {
		return Invalid("advancePayments", ErrPlanAdvanceExceedsTotal)
	}
	if p.MonthlyInstallment.IsNegative() {
		return Invalid("monthlyInstallment", ErrPlanMonthlyInvalid)
	}
	if p.DurationMonths < 0 {
		return Invalid("durationMonths", ErrPlanDurationInvalid)
	}
	if p.MonthlyInstallment.IsPositive() && p.DurationMonths == 0 {
		return Invalid("durationMonths", ErrPlanScheduleIncomplete)
	}
	if p.ShowroomCommission.IsNegative() {
		return Invalid("showroomCommission", ErrPlanCommissionInvalid)
	}
	if p.AgreementDate.IsZero() {
		return Invalid("agreementDate", ErrPlanAgreementDateEmpty)
	}
	return nil
}

// Validate checks terms and linkage
func (p *InstallmentPlan) Validate() error {
	if p.CustomerID <= 0 {
		return Invalid("customerId", ErrPlanCustomerRequired)
	}
	if p.RikshawID <= 0 {
		return Invalid("rikshawId", ErrPlanRikshawRequired)
	}
	return p.ValidateTerms()
}

// PlanTerms are the fields an administrative correction may change
type PlanTerms struct {
	TotalPrice         decimal.Decimal
	AdvancePayments    []AdvancePayment
	MonthlyInstallment decimal.Decimal
	DurationMonths     int32
	ShowroomCommission decimal.Decimal
}

// PlanRepository is the plan loader plus the plan-side writes.
// CreateWithSale must create the plan and mark the vehicle sold atomically.
type PlanRepository interface {
	CreateWithSale(ctx context.Context, plan *InstallmentPlan) (*InstallmentPlan, error)
	GetByID(ctx context.Context, id int32) (*InstallmentPlan, error)
	GetAll(ctx context.Context) ([]*InstallmentPlan, error)
	GetByCustomerID(ctx context.Context, customerID int32) ([]*InstallmentPlan, error)
	UpdateTerms(ctx context.Context, id int32, terms PlanTerms) (*InstallmentPlan, error)
}
