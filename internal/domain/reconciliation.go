package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reconciliation is the derived state of one plan computed from its terms and payments
type Reconciliation struct {
	PlanID int32 `json:"planId"`

	TotalAgreedAdvance      decimal.Decimal `json:"totalAgreedAdvance"`
	InitialCollectedAdvance decimal.Decimal `json:"initialCollectedAdvance"`
	AdvanceAdjustmentsPaid  decimal.Decimal `json:"advanceAdjustmentsPaid"`
	CollectedAdvance        decimal.Decimal `json:"collectedAdvance"`
	// RemainingAdvanceDue is signed: negative when more advance was collected than agreed
	RemainingAdvanceDue decimal.Decimal `json:"remainingAdvanceDue"`

	TotalMonthlyPaid      decimal.Decimal `json:"totalMonthlyPaid"`
	TotalDiscountApplied  decimal.Decimal `json:"totalDiscountApplied"`
	TotalCommissionPaid   decimal.Decimal `json:"totalCommissionPaid"`
	OutstandingCommission decimal.Decimal `json:"outstandingCommission"`

	CustomerTotalPaid decimal.Decimal `json:"customerTotalPaid"`
	CustomerDebt      decimal.Decimal `json:"customerDebt"`
	RemainingBalance  decimal.Decimal `json:"remainingBalance"`

	InstallmentsDueCount int32           `json:"installmentsDueCount"`
	ExpectedMonthlyPaid  decimal.Decimal `json:"expectedMonthlyPaid"`
	// MonthlyCredited is the monthly total used for status; under the waterfall
	// strategy it excludes the surplus moved onto the advance
	MonthlyCredited    decimal.Decimal `json:"monthlyCredited"`
	AdvanceFromMonthly decimal.Decimal `json:"advanceFromMonthly"`

	Status PlanStatus `json:"status"`
}

// AdvanceOutstanding is RemainingAdvanceDue clamped at zero, used for flags and counts
func (r Reconciliation) AdvanceOutstanding() decimal.Decimal {
	if r.RemainingAdvanceDue.IsNegative() {
		return decimal.Zero
	}
	return r.RemainingAdvanceDue
}

// ScheduleStatus is the state of one scheduled monthly period
type ScheduleStatus string

const (
	ScheduleStatusPaid          ScheduleStatus = "Paid"
	ScheduleStatusPartiallyPaid ScheduleStatus = "Partially Paid"
	ScheduleStatusUnpaid        ScheduleStatus = "Unpaid"
)

// ScheduleRow is one monthly period of a plan's schedule
type ScheduleRow struct {
	InstallmentNumber int32           `json:"installmentNumber"`
	DueDate           time.Time       `json:"dueDate"`
	ExpectedAmount    decimal.Decimal `json:"expectedAmount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	Status            ScheduleStatus  `json:"status"`
	Overdue           bool            `json:"overdue"`
}

// Remaining is the unpaid part of the period, never negative
func (r ScheduleRow) Remaining() decimal.Decimal {
	rem := r.ExpectedAmount.Sub(r.PaidAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// PlanDetail bundles a plan with everything derived from it
type PlanDetail struct {
	Plan           *InstallmentPlan `json:"plan"`
	Payments       []*Payment       `json:"payments"`
	Reconciliation Reconciliation   `json:"reconciliation"`
	Schedule       []ScheduleRow    `json:"schedule"`
}

// PlanSummary is a plan with its reconciliation, used in listings
type PlanSummary struct {
	Plan           *InstallmentPlan `json:"plan"`
	Reconciliation Reconciliation   `json:"reconciliation"`
}
