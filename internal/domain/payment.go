package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound              = errors.New("payment not found")
	ErrPaymentPlanRequired          = errors.New("plan ID is required")
	ErrPaymentAmountInvalid         = errors.New("payment amount must be positive")
	ErrPaymentTypeInvalid           = errors.New("payment type must be monthly, advance_adjustment, commission or discount")
	ErrPaymentDateEmpty             = errors.New("payment date is required")
	ErrPaymentReceivedByEmpty       = errors.New("received by is required")
	ErrPaymentInstallmentRequired   = errors.New("installment number is required for monthly payments")
	ErrPaymentInstallmentOutOfRange = errors.New("installment number is outside the plan's schedule")
	ErrPaymentInstallmentNotAllowed = errors.New("installment number is only allowed on monthly payments")
	ErrPaymentRangeInvalid          = errors.New("start date must not be after end date")
)

// PaymentType classifies a payment event
type PaymentType string

const (
	PaymentTypeMonthly           PaymentType = "monthly"
	PaymentTypeAdvanceAdjustment PaymentType = "advance_adjustment"
	PaymentTypeCommission        PaymentType = "commission"
	PaymentTypeDiscount          PaymentType = "discount"
)

// IsValid reports whether t is a known payment type
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeMonthly, PaymentTypeAdvanceAdjustment, PaymentTypeCommission, PaymentTypeDiscount:
		return true
	}
	return false
}

// Label returns a human readable name for receipts
func (t PaymentType) Label() string {
	switch t {
	case PaymentTypeMonthly:
		return "Monthly Installment"
	case PaymentTypeAdvanceAdjustment:
		return "Advance Payment"
	case PaymentTypeCommission:
		return "Showroom Commission"
	case PaymentTypeDiscount:
		return "Discount"
	}
	return string(t)
}

// Payment is one append-only payment event against a plan
type Payment struct {
	ID                int32           `json:"id"`
	PlanID            int32           `json:"planId"`
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	PaymentDate       time.Time       `json:"paymentDate"`
	ReceivedBy        string          `json:"receivedBy"`
	PaymentType       PaymentType     `json:"paymentType"`
	InstallmentNumber *int32          `json:"installmentNumber,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Validate checks the payment against the plan it targets
func (p *Payment) Validate(plan *InstallmentPlan) error {
	if p.PlanID <= 0 {
		return Invalid("planId", ErrPaymentPlanRequired)
	}
	if p.AmountPaid.LessThanOrEqual(decimal.Zero) {
		return Invalid("amountPaid", ErrPaymentAmountInvalid)
	}
	if !p.PaymentType.IsValid() {
		return Invalid("paymentType", ErrPaymentTypeInvalid)
	}
	if p.PaymentDate.IsZero() {
		return Invalid("paymentDate", ErrPaymentDateEmpty)
	}
	if strings.TrimSpace(p.ReceivedBy) == "" {
		return Invalid("receivedBy", ErrPaymentReceivedByEmpty)
	}
	if p.PaymentType == PaymentTypeMonthly {
		if p.InstallmentNumber == nil {
			return Invalid("installmentNumber", ErrPaymentInstallmentRequired)
		}
		if plan != nil && (*p.InstallmentNumber < 1 || *p.InstallmentNumber > plan.DurationMonths) {
			return Invalid("installmentNumber", ErrPaymentInstallmentOutOfRange)
		}
	} else if p.InstallmentNumber != nil {
		return Invalid("installmentNumber", ErrPaymentInstallmentNotAllowed)
	}
	return nil
}

// InstallmentLabel returns a label like "3/12" for monthly payments, empty otherwise
func (p *Payment) InstallmentLabel(duration int32) string {
	if p.InstallmentNumber == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d", *p.InstallmentNumber, duration)
}

// PaymentRepository is the payment loader plus payment writes.
// Create also applies the plan-level side effects in the same transaction:
// commission payments set is_commission_paid, monthly payments refresh the
// plan's running-total hint.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) (*Payment, error)
	GetByID(ctx context.Context, id int32) (*Payment, error)
	GetAll(ctx context.Context) ([]*Payment, error)
	GetByPlanID(ctx context.Context, planID int32) ([]*Payment, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*Payment, error)
	Update(ctx context.Context, payment *Payment) (*Payment, error)
	Delete(ctx context.Context, id int32) error
}
