package service

import (
	"testing"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSchedule_RowsAndStatuses(t *testing.T) {
	plan := testPlan(1, 100000, 10000, 4, day(2025, time.January, 31), 40000)
	paid := PaidByInstallment(1, []*domain.Payment{
		monthlyPayment(1, 1, 10000, 1),
		monthlyPayment(2, 1, 3000, 2),
		monthlyPayment(3, 1, 2500, 2),
	})

	rows := ExpandSchedule(plan, paid, day(2025, time.April, 1))

	require.Len(t, rows, 4)
	for i, row := range rows {
		assert.Equal(t, int32(i+1), row.InstallmentNumber)
		assertAmount(t, 10000, row.ExpectedAmount, "expectedAmount")
	}

	assert.Equal(t, day(2025, time.February, 28), rows[0].DueDate)
	assert.Equal(t, day(2025, time.March, 31), rows[1].DueDate)
	assert.Equal(t, day(2025, time.April, 30), rows[2].DueDate)
	assert.Equal(t, day(2025, time.May, 31), rows[3].DueDate)

	assert.Equal(t, domain.ScheduleStatusPaid, rows[0].Status)
	assert.False(t, rows[0].Overdue)

	assert.Equal(t, domain.ScheduleStatusPartiallyPaid, rows[1].Status)
	assertAmount(t, 5500, rows[1].PaidAmount, "paidAmount")
	assertAmount(t, 4500, rows[1].Remaining(), "remaining")
	assert.True(t, rows[1].Overdue)

	assert.Equal(t, domain.ScheduleStatusUnpaid, rows[2].Status)
	assert.False(t, rows[2].Overdue)
}

func TestExpandSchedule_ZeroDuration(t *testing.T) {
	plan := testPlan(1, 100000, 0, 0, day(2025, time.January, 1), 100000)

	rows := ExpandSchedule(plan, nil, day(2025, time.June, 1))

	assert.Empty(t, rows)
}

func TestExpandSchedule_ZeroMonthlyIsSatisfied(t *testing.T) {
	plan := testPlan(1, 100000, 0, 3, day(2025, time.January, 1), 100000)

	rows := ExpandSchedule(plan, map[int32]decimal.Decimal{}, day(2025, time.June, 1))

	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, domain.ScheduleStatusPaid, row.Status)
		assert.False(t, row.Overdue)
	}
}

func TestPaidByInstallment_SkipsUntaggedAndOtherTypes(t *testing.T) {
	untagged := testPayment(4, 1, domain.PaymentTypeMonthly, 700)
	payments := []*domain.Payment{
		monthlyPayment(1, 1, 1000, 3),
		monthlyPayment(2, 1, 500, 3),
		testPayment(3, 1, domain.PaymentTypeDiscount, 900),
		untagged,
		monthlyPayment(5, 2, 1000, 3),
	}

	paid := PaidByInstallment(1, payments)

	require.Len(t, paid, 1)
	assertAmount(t, 1500, paid[3], "installment 3")
}

func TestAllocateFIFO(t *testing.T) {
	plan := testPlan(1, 100000, 10000, 3, day(2025, time.January, 1))

	paid := AllocateFIFO(plan, []*domain.Payment{
		monthlyPayment(1, 1, 12000, 3),
		monthlyPayment(2, 1, 13000, 3),
	})
	require.Len(t, paid, 3)
	assertAmount(t, 10000, paid[1], "installment 1")
	assertAmount(t, 10000, paid[2], "installment 2")
	assertAmount(t, 5000, paid[3], "installment 3")

	overflow := AllocateFIFO(plan, []*domain.Payment{monthlyPayment(1, 1, 35000, 1)})
	assertAmount(t, 15000, overflow[3], "installment 3 overflow")

	none := AllocateFIFO(testPlan(2, 1000, 0, 0, day(2025, time.January, 1)), nil)
	assert.Empty(t, none)
}

func TestAllocate_SelectsStrategy(t *testing.T) {
	plan := testPlan(1, 100000, 10000, 3, day(2025, time.January, 1))
	payments := []*domain.Payment{monthlyPayment(1, 1, 10000, 3)}

	manual := Allocate(AllocationManual, plan, payments)
	assertAmount(t, 10000, manual[3], "manual installment 3")
	_, ok := manual[1]
	assert.False(t, ok)

	fifo := Allocate(AllocationFIFO, plan, payments)
	assertAmount(t, 10000, fifo[1], "fifo installment 1")
	_, ok = fifo[3]
	assert.False(t, ok)
}

func TestDeductFromLatest(t *testing.T) {
	paid := map[int32]decimal.Decimal{1: amt(100), 2: amt(100), 4: amt(30)}

	out := DeductFromLatest(paid, 4, amt(80))

	assertAmount(t, 100, out[1], "installment 1")
	assertAmount(t, 50, out[2], "installment 2")
	assertAmount(t, 0, out[4], "installment 4")
	assertAmount(t, 30, paid[4], "input untouched")
}

func TestReconcilerSchedule_WaterfallDoesNotDoubleCount(t *testing.T) {
	plan := testPlan(12, 300000, 10000, 12, day(2025, time.January, 1), 50000, 20000)
	payments := []*domain.Payment{
		monthlyPayment(1, 12, 10000, 1),
		monthlyPayment(2, 12, 10000, 2),
		monthlyPayment(3, 12, 10000, 3),
		monthlyPayment(4, 12, 10000, 4),
	}
	today := day(2025, time.March, 1)
	r := NewReconciler(StrategyWaterfall)
	rec := r.Reconcile(plan, payments, today)

	rows := r.Schedule(plan, payments, rec, AllocationManual, today)

	require.Len(t, rows, 12)
	assert.Equal(t, domain.ScheduleStatusPaid, rows[0].Status)
	assert.Equal(t, domain.ScheduleStatusPaid, rows[1].Status)
	assert.Equal(t, domain.ScheduleStatusUnpaid, rows[2].Status)
	assert.Equal(t, domain.ScheduleStatusUnpaid, rows[3].Status)

	strictRows := NewReconciler(StrategyStrict).Schedule(plan, payments, NewReconciler(StrategyStrict).Reconcile(plan, payments, today), AllocationManual, today)
	assert.Equal(t, domain.ScheduleStatusPaid, strictRows[3].Status)
}

func TestParseAllocation(t *testing.T) {
	a, err := ParseAllocation("")
	require.NoError(t, err)
	assert.Equal(t, AllocationManual, a)

	a, err = ParseAllocation("fifo")
	require.NoError(t, err)
	assert.Equal(t, AllocationFIFO, a)

	_, err = ParseAllocation("lifo")
	assert.Error(t, err)
}
