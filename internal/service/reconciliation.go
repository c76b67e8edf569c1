package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/metrics"
	"github.com/rikshawmart/rikshawmart-backend/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Strategy selects how monthly money relates to an advance shortfall
type Strategy string

const (
	// StrategyStrict keeps advance and monthly money strictly apart
	StrategyStrict Strategy = "strict"
	// StrategyWaterfall credits monthly surplus (paid beyond what is due to date)
	// against any uncollected advance before the status is evaluated
	StrategyWaterfall Strategy = "waterfall"
)

// ParseStrategy converts a config value into a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyStrict, StrategyWaterfall:
		return Strategy(s), nil
	case "":
		return StrategyStrict, nil
	}
	return "", fmt.Errorf("unknown reconciliation strategy %q", s)
}

// Reconciler derives balances and status of a plan from its payment events.
// It holds no state besides the configured strategy and is safe for concurrent use.
type Reconciler struct {
	strategy Strategy
}

// NewReconciler creates a Reconciler; an empty strategy means StrategyStrict
func NewReconciler(strategy Strategy) *Reconciler {
	if strategy == "" {
		strategy = StrategyStrict
	}
	return &Reconciler{strategy: strategy}
}

// Strategy returns the configured strategy
func (r *Reconciler) Strategy() Strategy {
	return r.strategy
}

// PaymentTotals are the per-type sums of a plan's payment events
type PaymentTotals struct {
	Monthly           decimal.Decimal
	AdvanceAdjustment decimal.Decimal
	Commission        decimal.Decimal
	Discount          decimal.Decimal
}

// SumPayments totals the payments belonging to planID by type.
// Payments for other plans and unknown types are skipped.
func SumPayments(planID int32, payments []*domain.Payment) PaymentTotals {
	totals := PaymentTotals{
		Monthly:           decimal.Zero,
		AdvanceAdjustment: decimal.Zero,
		Commission:        decimal.Zero,
		Discount:          decimal.Zero,
	}
	for _, p := range payments {
		if p == nil {
			continue
		}
		if p.PlanID != planID {
			log.Warn().Int32("plan_id", planID).Int32("payment_id", p.ID).Int32("payment_plan_id", p.PlanID).
				Msg("Skipping payment that belongs to another plan")
			continue
		}
		switch p.PaymentType {
		case domain.PaymentTypeMonthly:
			totals.Monthly = totals.Monthly.Add(p.AmountPaid)
		case domain.PaymentTypeAdvanceAdjustment:
			totals.AdvanceAdjustment = totals.AdvanceAdjustment.Add(p.AmountPaid)
		case domain.PaymentTypeCommission:
			totals.Commission = totals.Commission.Add(p.AmountPaid)
		case domain.PaymentTypeDiscount:
			totals.Discount = totals.Discount.Add(p.AmountPaid)
		default:
			log.Warn().Int32("plan_id", planID).Int32("payment_id", p.ID).Str("payment_type", string(p.PaymentType)).
				Msg("Skipping payment with unknown type")
		}
	}
	return totals
}

// DueDate returns the due date of installment i (1-indexed): agreement date + i months
func DueDate(plan *domain.InstallmentPlan, installment int32) time.Time {
	return util.AddMonths(util.DateOnly(plan.AgreementDate), int(installment))
}

// CountInstallmentsDue counts the monthly periods whose due date is on or before today
func CountInstallmentsDue(plan *domain.InstallmentPlan, today time.Time) int32 {
	today = util.DateOnly(today)
	var count int32
	for i := int32(1); i <= plan.DurationMonths; i++ {
		if DueDate(plan, i).After(today) {
			break
		}
		count++
	}
	return count
}

// Reconcile computes the derived state of plan. Payments may arrive in any order;
// every figure is a sum, so the result does not depend on it.
func (r *Reconciler) Reconcile(plan *domain.InstallmentPlan, payments []*domain.Payment, today time.Time) domain.Reconciliation {
	totals := SumPayments(plan.ID, payments)

	res := domain.Reconciliation{
		PlanID:                  plan.ID,
		TotalAgreedAdvance:      plan.TotalAgreedAdvance(),
		InitialCollectedAdvance: plan.InitialCollectedAdvance(),
		AdvanceAdjustmentsPaid:  totals.AdvanceAdjustment,
		TotalMonthlyPaid:        totals.Monthly,
		TotalDiscountApplied:    totals.Discount,
		TotalCommissionPaid:     totals.Commission,
		AdvanceFromMonthly:      decimal.Zero,
	}

	res.CollectedAdvance = res.InitialCollectedAdvance.Add(res.AdvanceAdjustmentsPaid)
	res.RemainingAdvanceDue = res.TotalAgreedAdvance.Sub(res.CollectedAdvance)

	// Commission is owed by the dealership and never reduces customer debt
	res.OutstandingCommission = plan.ShowroomCommission.Sub(res.TotalCommissionPaid)
	res.CustomerTotalPaid = res.CollectedAdvance.Add(res.TotalMonthlyPaid).Add(res.TotalDiscountApplied)
	res.CustomerDebt = plan.TotalPrice.Sub(res.CustomerTotalPaid)
	res.RemainingBalance = res.CustomerDebt.Add(res.OutstandingCommission)

	res.InstallmentsDueCount = CountInstallmentsDue(plan, today)
	res.ExpectedMonthlyPaid = plan.MonthlyInstallment.Mul(decimal.NewFromInt32(res.InstallmentsDueCount))
	res.MonthlyCredited = res.TotalMonthlyPaid

	if r.strategy == StrategyWaterfall {
		surplus := res.MonthlyCredited.Sub(res.ExpectedMonthlyPaid)
		shortfall := res.AdvanceOutstanding()
		if surplus.IsPositive() && shortfall.IsPositive() {
			moved := decimal.Min(surplus, shortfall)
			res.AdvanceFromMonthly = moved
			res.CollectedAdvance = res.CollectedAdvance.Add(moved)
			res.RemainingAdvanceDue = res.RemainingAdvanceDue.Sub(moved)
			res.MonthlyCredited = res.MonthlyCredited.Sub(moved)
		}
	}

	res.Status = evaluateStatus(plan, res)
	return res
}

// evaluateStatus applies the status rules in priority order; the first match wins
func evaluateStatus(plan *domain.InstallmentPlan, res domain.Reconciliation) domain.PlanStatus {
	if res.CustomerTotalPaid.GreaterThanOrEqual(plan.TotalPrice) {
		return domain.PlanStatusCompleted
	}
	if res.AdvanceOutstanding().IsPositive() {
		return domain.PlanStatusAdvancePending
	}
	if res.InstallmentsDueCount == 0 {
		return domain.PlanStatusNotActive
	}
	if res.MonthlyCredited.LessThan(res.ExpectedMonthlyPaid) {
		return domain.PlanStatusOverdue
	}
	return domain.PlanStatusActive
}

// GroupPaymentsByPlan joins payments to plans by plan ID. Payments without a
// plan link, or pointing at a plan that was not loaded, are returned as
// integrity errors and left out of every group.
func GroupPaymentsByPlan(plans []*domain.InstallmentPlan, payments []*domain.Payment) (map[int32][]*domain.Payment, []domain.IntegrityError) {
	known := make(map[int32]bool, len(plans))
	for _, plan := range plans {
		known[plan.ID] = true
	}

	grouped := make(map[int32][]*domain.Payment, len(plans))
	var orphans []domain.IntegrityError
	for _, p := range payments {
		if p == nil {
			continue
		}
		var reason string
		switch {
		case p.PlanID <= 0:
			reason = "payment has no plan linkage"
		case !known[p.PlanID]:
			reason = "payment references an unknown plan"
		}
		if reason != "" {
			orphans = append(orphans, domain.IntegrityError{PaymentID: p.ID, PlanID: p.PlanID, Reason: reason})
			metrics.IntegrityAmbiguities.Inc()
			log.Warn().Int32("payment_id", p.ID).Int32("plan_id", p.PlanID).Str("reason", reason).
				Msg("Excluding payment from reconciliation")
			continue
		}
		grouped[p.PlanID] = append(grouped[p.PlanID], p)
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].PaymentID < orphans[j].PaymentID
	})
	return grouped, orphans
}
