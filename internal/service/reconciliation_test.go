package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func amt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func testPlan(id int32, total, monthly int64, duration int32, agreement time.Time, advances ...int64) *domain.InstallmentPlan {
	plan := &domain.InstallmentPlan{
		ID:                 id,
		CustomerID:         id,
		RikshawID:          id,
		TotalPrice:         amt(total),
		MonthlyInstallment: amt(monthly),
		DurationMonths:     duration,
		AgreementDate:      agreement,
		ShowroomCommission: decimal.Zero,
	}
	for i, a := range advances {
		plan.AdvancePayments = append(plan.AdvancePayments, domain.AdvancePayment{
			Amount: amt(a),
			Date:   agreement.AddDate(0, 0, i*7),
		})
	}
	return plan
}

func testPayment(id, planID int32, paymentType domain.PaymentType, amount int64) *domain.Payment {
	return &domain.Payment{
		ID:          id,
		PlanID:      planID,
		AmountPaid:  amt(amount),
		PaymentDate: day(2025, time.January, 1),
		ReceivedBy:  "Counter",
		PaymentType: paymentType,
	}
}

func monthlyPayment(id, planID int32, amount int64, installment int32) *domain.Payment {
	p := testPayment(id, planID, domain.PaymentTypeMonthly, amount)
	p.InstallmentNumber = &installment
	return p
}

func assertAmount(t *testing.T, expected int64, actual decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, actual.Equal(amt(expected)), "%s: expected %d, got %s", field, expected, actual.String())
}

func TestReconcile_SingleAdvanceNeverPending(t *testing.T) {
	plan := testPlan(1, 490000, 35000, 12, day(2025, time.January, 15), 75000)
	r := NewReconciler(StrategyStrict)

	res := r.Reconcile(plan, nil, day(2025, time.April, 20))

	assertAmount(t, 75000, res.TotalAgreedAdvance, "totalAgreedAdvance")
	assertAmount(t, 75000, res.CollectedAdvance, "collectedAdvance")
	assertAmount(t, 0, res.RemainingAdvanceDue, "remainingAdvanceDue")
	assertAmount(t, 415000, res.CustomerDebt, "customerDebt")
	assert.Equal(t, int32(3), res.InstallmentsDueCount)
	assertAmount(t, 105000, res.ExpectedMonthlyPaid, "expectedMonthlyPaid")
	assert.Equal(t, domain.PlanStatusOverdue, res.Status)
}

func TestReconcile_SingleAdvanceBeforeFirstDue(t *testing.T) {
	plan := testPlan(1, 490000, 35000, 12, day(2025, time.January, 15), 75000)
	r := NewReconciler(StrategyStrict)

	res := r.Reconcile(plan, nil, day(2025, time.February, 14))

	assert.Equal(t, int32(0), res.InstallmentsDueCount)
	assert.Equal(t, domain.PlanStatusNotActive, res.Status)
}

func TestReconcile_UncollectedAgreedAdvance(t *testing.T) {
	plan := testPlan(2, 490000, 24000, 12, day(2025, time.January, 1), 75000, 125000)
	payments := []*domain.Payment{
		testPayment(1, 2, domain.PaymentTypeAdvanceAdjustment, 100000),
		testPayment(2, 2, domain.PaymentTypeAdvanceAdjustment, 20000),
	}

	res := NewReconciler(StrategyStrict).Reconcile(plan, payments, day(2025, time.March, 1))

	assertAmount(t, 200000, res.TotalAgreedAdvance, "totalAgreedAdvance")
	assertAmount(t, 75000, res.InitialCollectedAdvance, "initialCollectedAdvance")
	assertAmount(t, 120000, res.AdvanceAdjustmentsPaid, "advanceAdjustmentsPaid")
	assertAmount(t, 195000, res.CollectedAdvance, "collectedAdvance")
	assertAmount(t, 5000, res.RemainingAdvanceDue, "remainingAdvanceDue")
	assert.Equal(t, domain.PlanStatusAdvancePending, res.Status)
}

func TestReconcile_PartiallyPaidMonthsAreOverdue(t *testing.T) {
	plan := testPlan(3, 100000, 10000, 6, day(2025, time.January, 10), 40000)
	payments := []*domain.Payment{monthlyPayment(1, 3, 10000, 1)}

	res := NewReconciler(StrategyStrict).Reconcile(plan, payments, day(2025, time.March, 10))

	assert.Equal(t, int32(2), res.InstallmentsDueCount)
	assertAmount(t, 20000, res.ExpectedMonthlyPaid, "expectedMonthlyPaid")
	assertAmount(t, 10000, res.TotalMonthlyPaid, "totalMonthlyPaid")
	assert.Equal(t, domain.PlanStatusOverdue, res.Status)
}

func TestReconcile_DiscountCompletesWithCommissionOutstanding(t *testing.T) {
	plan := testPlan(4, 100000, 10000, 6, day(2025, time.January, 10), 40000)
	plan.ShowroomCommission = amt(5000)
	payments := []*domain.Payment{
		monthlyPayment(1, 4, 10000, 1),
		monthlyPayment(2, 4, 10000, 2),
		monthlyPayment(3, 4, 10000, 3),
		monthlyPayment(4, 4, 10000, 4),
		monthlyPayment(5, 4, 10000, 5),
		testPayment(6, 4, domain.PaymentTypeDiscount, 10000),
		testPayment(7, 4, domain.PaymentTypeCommission, 2000),
	}

	res := NewReconciler(StrategyStrict).Reconcile(plan, payments, day(2025, time.June, 15))

	assertAmount(t, 100000, res.CustomerTotalPaid, "customerTotalPaid")
	assertAmount(t, 0, res.CustomerDebt, "customerDebt")
	assertAmount(t, 3000, res.OutstandingCommission, "outstandingCommission")
	assertAmount(t, 3000, res.RemainingBalance, "remainingBalance")
	assert.Equal(t, domain.PlanStatusCompleted, res.Status)
}

func TestReconcile_AdvancePrecedesMonthlyStatus(t *testing.T) {
	plan := testPlan(5, 300000, 10000, 12, day(2025, time.January, 1), 50000, 50000)
	payments := []*domain.Payment{
		monthlyPayment(1, 5, 10000, 1),
		monthlyPayment(2, 5, 10000, 2),
	}

	res := NewReconciler(StrategyStrict).Reconcile(plan, payments, day(2025, time.March, 1))

	assert.Equal(t, int32(2), res.InstallmentsDueCount)
	assert.True(t, res.TotalMonthlyPaid.GreaterThanOrEqual(res.ExpectedMonthlyPaid))
	assert.Equal(t, domain.PlanStatusAdvancePending, res.Status)
}

func TestReconcile_CompletionOverridesAdvanceShortfall(t *testing.T) {
	plan := testPlan(6, 100000, 0, 0, day(2025, time.January, 1), 30000, 70000)
	payments := []*domain.Payment{testPayment(1, 6, domain.PaymentTypeDiscount, 70000)}

	res := NewReconciler(StrategyStrict).Reconcile(plan, payments, day(2025, time.February, 1))

	assertAmount(t, 70000, res.RemainingAdvanceDue, "remainingAdvanceDue")
	assert.Equal(t, domain.PlanStatusCompleted, res.Status)
}

func TestReconcile_OverCollectedAdvanceIsSigned(t *testing.T) {
	plan := testPlan(7, 200000, 10000, 10, day(2025, time.January, 1), 50000)
	payments := []*domain.Payment{testPayment(1, 7, domain.PaymentTypeAdvanceAdjustment, 8000)}

	res := NewReconciler(StrategyStrict).Reconcile(plan, payments, day(2025, time.January, 20))

	assertAmount(t, -8000, res.RemainingAdvanceDue, "remainingAdvanceDue")
	assertAmount(t, 0, res.AdvanceOutstanding(), "advanceOutstanding")
	assert.Equal(t, domain.PlanStatusNotActive, res.Status)
}

func TestReconcile_CommissionLeavesCustomerDebtUnchanged(t *testing.T) {
	plan := testPlan(8, 200000, 10000, 10, day(2025, time.January, 1), 100000)
	plan.ShowroomCommission = amt(6000)
	r := NewReconciler(StrategyStrict)
	today := day(2025, time.May, 1)

	before := r.Reconcile(plan, nil, today)
	after := r.Reconcile(plan, []*domain.Payment{testPayment(1, 8, domain.PaymentTypeCommission, 4000)}, today)

	assert.True(t, before.CustomerDebt.Equal(after.CustomerDebt))
	assert.Equal(t, before.Status, after.Status)
	assertAmount(t, 6000, before.OutstandingCommission, "outstandingCommission before")
	assertAmount(t, 2000, after.OutstandingCommission, "outstandingCommission after")
	assert.True(t, before.RemainingBalance.Sub(after.RemainingBalance).Equal(amt(4000)))
}

func TestReconcile_IdempotentAndOrderIndependent(t *testing.T) {
	plan := testPlan(9, 400000, 20000, 15, day(2024, time.November, 30), 60000, 40000)
	plan.ShowroomCommission = amt(7000)
	payments := []*domain.Payment{
		monthlyPayment(1, 9, 20000, 1),
		monthlyPayment(2, 9, 15000, 2),
		monthlyPayment(3, 9, 5000, 2),
		testPayment(4, 9, domain.PaymentTypeAdvanceAdjustment, 25000),
		testPayment(5, 9, domain.PaymentTypeCommission, 3000),
		testPayment(6, 9, domain.PaymentTypeDiscount, 1000),
		monthlyPayment(7, 9, 20000, 3),
	}
	r := NewReconciler(StrategyStrict)
	today := day(2025, time.April, 2)

	first := r.Reconcile(plan, payments, today)
	second := r.Reconcile(plan, payments, today)
	assert.Equal(t, first, second)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]*domain.Payment(nil), payments...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := r.Reconcile(plan, shuffled, today)
		assert.True(t, got.CustomerTotalPaid.Equal(first.CustomerTotalPaid))
		assert.True(t, got.RemainingBalance.Equal(first.RemainingBalance))
		assert.Equal(t, first.Status, got.Status)
	}
}

func TestReconcile_IgnoresPaymentsOfOtherPlans(t *testing.T) {
	plan := testPlan(10, 100000, 10000, 5, day(2025, time.January, 1), 50000)
	payments := []*domain.Payment{
		monthlyPayment(1, 10, 10000, 1),
		monthlyPayment(2, 11, 10000, 1),
		nil,
	}

	res := NewReconciler(StrategyStrict).Reconcile(plan, payments, day(2025, time.February, 1))

	assertAmount(t, 10000, res.TotalMonthlyPaid, "totalMonthlyPaid")
	assert.Equal(t, domain.PlanStatusActive, res.Status)
}

func TestReconcile_ZeroMonthlyInstallment(t *testing.T) {
	plan := testPlan(11, 100000, 0, 4, day(2025, time.January, 1), 100000)

	res := NewReconciler(StrategyStrict).Reconcile(plan, nil, day(2025, time.March, 1))

	assert.Equal(t, domain.PlanStatusCompleted, res.Status)

	plan.TotalPrice = amt(120000)
	res = NewReconciler(StrategyStrict).Reconcile(plan, nil, day(2025, time.March, 1))
	assert.Equal(t, domain.PlanStatusActive, res.Status)
}

func TestReconcile_WaterfallCreditsSurplusToAdvance(t *testing.T) {
	plan := testPlan(12, 300000, 10000, 12, day(2025, time.January, 1), 50000, 20000)
	payments := []*domain.Payment{
		monthlyPayment(1, 12, 10000, 1),
		monthlyPayment(2, 12, 10000, 2),
		monthlyPayment(3, 12, 10000, 3),
		monthlyPayment(4, 12, 10000, 4),
	}
	today := day(2025, time.March, 1)

	strict := NewReconciler(StrategyStrict).Reconcile(plan, payments, today)
	assert.Equal(t, domain.PlanStatusAdvancePending, strict.Status)

	res := NewReconciler(StrategyWaterfall).Reconcile(plan, payments, today)
	assertAmount(t, 20000, res.AdvanceFromMonthly, "advanceFromMonthly")
	assertAmount(t, 70000, res.CollectedAdvance, "collectedAdvance")
	assertAmount(t, 0, res.RemainingAdvanceDue, "remainingAdvanceDue")
	assertAmount(t, 20000, res.MonthlyCredited, "monthlyCredited")
	assertAmount(t, 40000, res.TotalMonthlyPaid, "totalMonthlyPaid")
	assert.True(t, res.CustomerTotalPaid.Equal(strict.CustomerTotalPaid))
	assert.Equal(t, domain.PlanStatusActive, res.Status)
}

func TestReconcile_WaterfallLeavesDueMonthsAlone(t *testing.T) {
	plan := testPlan(13, 300000, 10000, 12, day(2025, time.January, 1), 50000, 20000)
	payments := []*domain.Payment{
		monthlyPayment(1, 13, 10000, 1),
		monthlyPayment(2, 13, 5000, 2),
	}

	res := NewReconciler(StrategyWaterfall).Reconcile(plan, payments, day(2025, time.March, 1))

	assert.True(t, res.AdvanceFromMonthly.IsZero())
	assertAmount(t, 20000, res.RemainingAdvanceDue, "remainingAdvanceDue")
	assert.Equal(t, domain.PlanStatusAdvancePending, res.Status)
}

func TestCountInstallmentsDue_ClampsMonthEnd(t *testing.T) {
	plan := testPlan(14, 100000, 1000, 3, day(2025, time.January, 31))

	assert.Equal(t, int32(0), CountInstallmentsDue(plan, day(2025, time.February, 27)))
	assert.Equal(t, int32(1), CountInstallmentsDue(plan, day(2025, time.February, 28)))
	assert.Equal(t, int32(2), CountInstallmentsDue(plan, day(2025, time.March, 31)))
	assert.Equal(t, int32(3), CountInstallmentsDue(plan, day(2026, time.January, 1)))
}

func TestCountInstallmentsDue_IgnoresClock(t *testing.T) {
	plan := testPlan(15, 100000, 1000, 3, time.Date(2025, time.January, 10, 18, 30, 0, 0, time.UTC))

	assert.Equal(t, int32(1), CountInstallmentsDue(plan, time.Date(2025, time.February, 10, 0, 5, 0, 0, time.UTC)))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyStrict, s)

	s, err = ParseStrategy("waterfall")
	require.NoError(t, err)
	assert.Equal(t, StrategyWaterfall, s)

	_, err = ParseStrategy("pool")
	assert.Error(t, err)
}

func TestGroupPaymentsByPlan_ExcludesOrphans(t *testing.T) {
	plans := []*domain.InstallmentPlan{
		testPlan(1, 1000, 100, 10, day(2025, time.January, 1)),
		testPlan(2, 1000, 100, 10, day(2025, time.January, 1)),
	}
	payments := []*domain.Payment{
		monthlyPayment(30, 99, 100, 1),
		monthlyPayment(10, 1, 100, 1),
		monthlyPayment(20, 0, 100, 1),
		monthlyPayment(11, 2, 100, 1),
	}

	grouped, orphans := GroupPaymentsByPlan(plans, payments)

	assert.Len(t, grouped[1], 1)
	assert.Len(t, grouped[2], 1)
	require.Len(t, orphans, 2)
	assert.Equal(t, int32(20), orphans[0].PaymentID)
	assert.Equal(t, int32(30), orphans[1].PaymentID)
	assert.Equal(t, int32(99), orphans[1].PlanID)
}
