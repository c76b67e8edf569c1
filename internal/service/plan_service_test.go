package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/testutil"
	"github.com/rikshawmart/rikshawmart-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planFixture struct {
	svc       *PlanService
	plans     *testutil.MockPlanRepository
	payments  *testutil.MockPaymentRepository
	customers *testutil.MockCustomerRepository
	rikshaws  *testutil.MockRikshawRepository
	publisher *testutil.MockEventPublisher
}

func newPlanFixture(strategy Strategy) *planFixture {
	f := &planFixture{
		plans:     testutil.NewMockPlanRepository(),
		payments:  testutil.NewMockPaymentRepository(),
		customers: testutil.NewMockCustomerRepository(),
		rikshaws:  testutil.NewMockRikshawRepository(),
		publisher: testutil.NewMockEventPublisher(),
	}
	f.plans.Rikshaws = f.rikshaws
	f.plans.Customers = f.customers
	f.payments.Plans = f.plans

	f.customers.AddCustomer(&domain.Customer{ID: 1, Name: "Rashid Khan", NationalID: "111", Phone: "0300"})
	f.rikshaws.AddRikshaw(&domain.Rikshaw{ID: 1, Manufacturer: "Sazgar", Model: "2025", EngineNumber: "ENG-1", ChassisNumber: "CHS-1", PurchasePrice: amt(380000), Availability: domain.AvailabilityUnsold})

	f.svc = NewPlanService(f.plans, f.payments, f.customers, f.rikshaws, NewReconciler(strategy), AllocationManual)
	f.svc.SetEventPublisher(f.publisher)
	f.svc.now = func() time.Time { return day(2025, time.April, 20) }
	return f
}

func validPlanInput() PlanInput {
	return PlanInput{
		CustomerID:         1,
		RikshawID:          1,
		TotalPrice:         amt(490000),
		AdvancePayments:    []domain.AdvancePayment{{Amount: amt(75000), Date: time.Date(2025, time.January, 15, 14, 30, 0, 0, time.UTC)}},
		MonthlyInstallment: amt(35000),
		DurationMonths:     12,
		AgreementDate:      time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC),
		ShowroomCommission: amt(5000),
	}
}

func TestCreatePlan_MarksVehicleSold(t *testing.T) {
	f := newPlanFixture(StrategyStrict)

	plan, err := f.svc.CreatePlan(context.Background(), validPlanInput())
	require.NoError(t, err)

	assert.Equal(t, int32(1), plan.ID)
	assert.Equal(t, day(2025, time.January, 15), plan.AgreementDate)
	assert.Equal(t, day(2025, time.January, 15), plan.AdvancePayments[0].Date)
	assert.Equal(t, "Rashid Khan", plan.Customer.Name)
	assert.Equal(t, "ENG-1", plan.Rikshaw.EngineNumber)

	rikshaw := f.rikshaws.Rikshaws[1]
	assert.True(t, rikshaw.IsSold())
	require.NotNil(t, rikshaw.SalePrice)
	assertAmount(t, 490000, *rikshaw.SalePrice, "salePrice")
	assertAmount(t, 110000, rikshaw.Profit(), "profit")

	assert.Equal(t, []string{websocket.TopicDashboard}, f.publisher.Topics())
	assert.Equal(t, "plan.created", f.publisher.Events[0].Event.Type)
}

func TestCreatePlan_ValidationBeforeWrite(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*PlanInput)
		expected error
	}{
		{"zero total", func(in *PlanInput) { in.TotalPrice = amt(0) }, domain.ErrPlanTotalPriceInvalid},
		{"negative advance", func(in *PlanInput) { in.AdvancePayments[0].Amount = amt(-1) }, domain.ErrPlanAdvanceInvalid},
		{"advance above total", func(in *PlanInput) { in.AdvancePayments[0].Amount = amt(500000) }, domain.ErrPlanAdvanceExceedsTotal},
		{"negative monthly", func(in *PlanInput) { in.MonthlyInstallment = amt(-5) }, domain.ErrPlanMonthlyInvalid},
		{"negative duration", func(in *PlanInput) { in.DurationMonths = -1 }, domain.ErrPlanDurationInvalid},
		{"negative commission", func(in *PlanInput) { in.ShowroomCommission = amt(-1) }, domain.ErrPlanCommissionInvalid},
		{"unknown customer", func(in *PlanInput) { in.CustomerID = 42 }, domain.ErrCustomerNotFound},
		{"unknown vehicle", func(in *PlanInput) { in.RikshawID = 42 }, domain.ErrRikshawNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPlanFixture(StrategyStrict)
			input := validPlanInput()
			tt.mutate(&input)

			_, err := f.svc.CreatePlan(context.Background(), input)
			assert.ErrorIs(t, err, tt.expected)
			assert.True(t, domain.IsValidationError(err))
			assert.Equal(t, 0, f.plans.CreateCalls)
			assert.False(t, f.rikshaws.Rikshaws[1].IsSold())
			assert.Empty(t, f.publisher.Events)
		})
	}
}

func TestCreatePlan_VehicleAlreadySold(t *testing.T) {
	f := newPlanFixture(StrategyStrict)
	_, err := f.svc.CreatePlan(context.Background(), validPlanInput())
	require.NoError(t, err)

	input := validPlanInput()
	_, err = f.svc.CreatePlan(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrRikshawAlreadySold)
	assert.Equal(t, 1, f.plans.CreateCalls)
}

func TestUpdateTerms(t *testing.T) {
	f := newPlanFixture(StrategyStrict)
	f.plans.AddPlan(testPlan(7, 490000, 35000, 12, day(2025, time.January, 15), 75000))

	updated, err := f.svc.UpdateTerms(context.Background(), 7, PlanTermsInput{
		TotalPrice:         amt(480000),
		AdvancePayments:    []domain.AdvancePayment{{Amount: amt(75000), Date: day(2025, time.January, 15)}},
		MonthlyInstallment: amt(33750),
		DurationMonths:     12,
		ShowroomCommission: amt(0),
	})
	require.NoError(t, err)
	assertAmount(t, 480000, updated.TotalPrice, "totalPrice")
	assert.Equal(t, []string{websocket.PlanTopic(7), websocket.TopicDashboard}, f.publisher.Topics())

	_, err = f.svc.UpdateTerms(context.Background(), 7, PlanTermsInput{TotalPrice: amt(480000), MonthlyInstallment: amt(1000), DurationMonths: 0})
	assert.ErrorIs(t, err, domain.ErrPlanScheduleIncomplete)
	assertAmount(t, 33750, f.plans.Plans[7].MonthlyInstallment, "monthlyInstallment")

	_, err = f.svc.UpdateTerms(context.Background(), 99, PlanTermsInput{TotalPrice: amt(1)})
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestGetPlanDetail(t *testing.T) {
	f := newPlanFixture(StrategyStrict)
	f.plans.AddPlan(testPlan(1, 490000, 35000, 12, day(2025, time.January, 15), 75000))
	f.payments.AddPayment(monthlyPayment(1, 1, 35000, 1))
	f.payments.AddPayment(monthlyPayment(2, 1, 20000, 2))

	detail, err := f.svc.GetPlanDetail(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, detail.Payments, 2)
	assert.Equal(t, domain.PlanStatusOverdue, detail.Reconciliation.Status)
	assertAmount(t, 55000, detail.Reconciliation.TotalMonthlyPaid, "totalMonthlyPaid")
	require.Len(t, detail.Schedule, 12)
	assert.Equal(t, domain.ScheduleStatusPaid, detail.Schedule[0].Status)
	assert.Equal(t, domain.ScheduleStatusPartiallyPaid, detail.Schedule[1].Status)
	assert.True(t, detail.Schedule[2].Overdue)

	schedule, err := f.svc.GetSchedule(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, detail.Schedule, schedule)

	_, err = f.svc.GetPlanDetail(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestListPlans_StatusFilter(t *testing.T) {
	f := newPlanFixture(StrategyStrict)
	f.plans.AddPlan(testPlan(1, 490000, 35000, 12, day(2025, time.January, 15), 75000))
	f.plans.AddPlan(testPlan(2, 100000, 0, 0, day(2025, time.January, 15), 100000))
	f.plans.AddPlan(testPlan(3, 490000, 35000, 12, day(2025, time.April, 10), 50000, 25000))

	all, err := f.svc.ListPlans(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.PlanStatusOverdue, all[0].Reconciliation.Status)
	assert.Equal(t, domain.PlanStatusCompleted, all[1].Reconciliation.Status)
	assert.Equal(t, domain.PlanStatusAdvancePending, all[2].Reconciliation.Status)

	completed := domain.PlanStatusCompleted
	filtered, err := f.svc.ListPlans(context.Background(), &completed)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, int32(2), filtered[0].Plan.ID)

	bogus := domain.PlanStatus("Lost")
	_, err = f.svc.ListPlans(context.Background(), &bogus)
	assert.True(t, domain.IsValidationError(err))
}

func TestListPlans_LoadFailure(t *testing.T) {
	f := newPlanFixture(StrategyStrict)
	f.payments.GetAllErr = errors.New("connection reset")

	_, err := f.svc.ListPlans(context.Background(), nil)
	assert.True(t, domain.IsLoadError(err))
}
