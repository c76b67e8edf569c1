package service

import (
	"fmt"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/util"
	"github.com/shopspring/decimal"
)

// Allocation selects how monthly payments are assigned to schedule periods
type Allocation string

const (
	// AllocationManual credits each monthly payment to the installment number it was tagged with
	AllocationManual Allocation = "manual"
	// AllocationFIFO ignores tags and fills periods oldest first from the monthly total
	AllocationFIFO Allocation = "fifo"
)

// ParseAllocation converts a config value into an Allocation
func ParseAllocation(s string) (Allocation, error) {
	switch Allocation(s) {
	case AllocationManual, AllocationFIFO:
		return Allocation(s), nil
	case "":
		return AllocationManual, nil
	}
	return "", fmt.Errorf("unknown installment allocation %q", s)
}

// PaidByInstallment sums monthly payments per tagged installment number.
// Untagged monthly payments and other payment types are not attributed.
func PaidByInstallment(planID int32, payments []*domain.Payment) map[int32]decimal.Decimal {
	paid := make(map[int32]decimal.Decimal)
	for _, p := range payments {
		if p == nil || p.PlanID != planID || p.PaymentType != domain.PaymentTypeMonthly || p.InstallmentNumber == nil {
			continue
		}
		n := *p.InstallmentNumber
		paid[n] = paid[n].Add(p.AmountPaid)
	}
	return paid
}

// AllocateFIFO spreads the plan's total monthly payments over its periods in
// order, each period taking at most the monthly installment. Anything left
// after the last period stays on the last period.
func AllocateFIFO(plan *domain.InstallmentPlan, payments []*domain.Payment) map[int32]decimal.Decimal {
	paid := make(map[int32]decimal.Decimal)
	if plan.DurationMonths <= 0 {
		return paid
	}

	remaining := SumPayments(plan.ID, payments).Monthly
	for i := int32(1); i <= plan.DurationMonths && remaining.IsPositive(); i++ {
		take := decimal.Min(remaining, plan.MonthlyInstallment)
		if i == plan.DurationMonths {
			take = remaining
		}
		paid[i] = take
		remaining = remaining.Sub(take)
	}
	return paid
}

// Allocate returns the per-period paid amounts under the given allocation
func Allocate(allocation Allocation, plan *domain.InstallmentPlan, payments []*domain.Payment) map[int32]decimal.Decimal {
	if allocation == AllocationFIFO {
		return AllocateFIFO(plan, payments)
	}
	return PaidByInstallment(plan.ID, payments)
}

// DeductFromLatest removes amount from the latest periods first. It is used
// when the waterfall strategy moved monthly surplus onto the advance, so the
// schedule does not count the same money twice.
func DeductFromLatest(paid map[int32]decimal.Decimal, duration int32, amount decimal.Decimal) map[int32]decimal.Decimal {
	out := make(map[int32]decimal.Decimal, len(paid))
	for k, v := range paid {
		out[k] = v
	}
	for i := duration; i >= 1 && amount.IsPositive(); i-- {
		have, ok := out[i]
		if !ok || !have.IsPositive() {
			continue
		}
		take := decimal.Min(have, amount)
		out[i] = have.Sub(take)
		amount = amount.Sub(take)
	}
	return out
}

// ExpandSchedule builds one row per monthly period with its due date, the
// expected and paid amounts, and whether it is overdue as of today
func ExpandSchedule(plan *domain.InstallmentPlan, paid map[int32]decimal.Decimal, today time.Time) []domain.ScheduleRow {
	today = util.DateOnly(today)
	rows := make([]domain.ScheduleRow, 0, plan.DurationMonths)
	for i := int32(1); i <= plan.DurationMonths; i++ {
		amount, ok := paid[i]
		if !ok {
			amount = decimal.Zero
		}

		row := domain.ScheduleRow{
			InstallmentNumber: i,
			DueDate:           DueDate(plan, i),
			ExpectedAmount:    plan.MonthlyInstallment,
			PaidAmount:        amount,
		}
		switch {
		case amount.GreaterThanOrEqual(plan.MonthlyInstallment):
			row.Status = domain.ScheduleStatusPaid
		case amount.IsPositive():
			row.Status = domain.ScheduleStatusPartiallyPaid
		default:
			row.Status = domain.ScheduleStatusUnpaid
		}
		row.Overdue = row.Status != domain.ScheduleStatusPaid && row.DueDate.Before(today)
		rows = append(rows, row)
	}
	return rows
}

// Schedule expands the plan's schedule consistently with a reconciliation
// computed by r for the same payments
func (r *Reconciler) Schedule(plan *domain.InstallmentPlan, payments []*domain.Payment, rec domain.Reconciliation, allocation Allocation, today time.Time) []domain.ScheduleRow {
	paid := Allocate(allocation, plan, payments)
	if rec.AdvanceFromMonthly.IsPositive() {
		paid = DeductFromLatest(paid, plan.DurationMonths, rec.AdvanceFromMonthly)
	}
	return ExpandSchedule(plan, paid, today)
}
