package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPlanRepo struct {
	*testutil.MockPlanRepository
	getAllCalls  int
	getByIDCalls int
}

func (r *countingPlanRepo) GetAll(ctx context.Context) ([]*domain.InstallmentPlan, error) {
	r.getAllCalls++
	return r.MockPlanRepository.GetAll(ctx)
}

func (r *countingPlanRepo) GetByID(ctx context.Context, id int32) (*domain.InstallmentPlan, error) {
	r.getByIDCalls++
	return r.MockPlanRepository.GetByID(ctx, id)
}

type countingPaymentRepo struct {
	*testutil.MockPaymentRepository
	getByPlanCalls int
}

func (r *countingPaymentRepo) GetByPlanID(ctx context.Context, planID int32) ([]*domain.Payment, error) {
	r.getByPlanCalls++
	return r.MockPaymentRepository.GetByPlanID(ctx, planID)
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func samplePlan(id int32) *domain.InstallmentPlan {
	return &domain.InstallmentPlan{
		ID:                 id,
		CustomerID:         1,
		RikshawID:          id,
		TotalPrice:         decimal.RequireFromString("490000.50"),
		MonthlyInstallment: decimal.NewFromInt(35000),
		DurationMonths:     12,
		AgreementDate:      time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		AdvancePayments: []domain.AdvancePayment{
			{Amount: decimal.NewFromInt(75000), Date: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		},
		Customer: domain.CustomerSnapshot{Name: "Rashid Khan"},
	}
}

func TestPlanRepository_CachesGetAll(t *testing.T) {
	cache, _ := newTestCache(t)
	inner := &countingPlanRepo{MockPlanRepository: testutil.NewMockPlanRepository()}
	inner.AddPlan(samplePlan(1))
	repo := NewPlanRepository(inner, cache)
	ctx := context.Background()

	first, err := repo.GetAll(ctx)
	require.NoError(t, err)
	second, err := repo.GetAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.getAllCalls)
	require.Len(t, second, 1)
	assert.True(t, first[0].TotalPrice.Equal(second[0].TotalPrice))
	assert.Equal(t, "Rashid Khan", second[0].Customer.Name)
	assert.True(t, second[0].AgreementDate.Equal(first[0].AgreementDate))
}

func TestPlanRepository_WriteInvalidates(t *testing.T) {
	cache, _ := newTestCache(t)
	inner := &countingPlanRepo{MockPlanRepository: testutil.NewMockPlanRepository()}
	inner.AddPlan(samplePlan(1))
	repo := NewPlanRepository(inner, cache)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)

	_, err = repo.UpdateTerms(ctx, 1, domain.PlanTerms{TotalPrice: decimal.NewFromInt(480000), DurationMonths: 12, MonthlyInstallment: decimal.NewFromInt(35000)})
	require.NoError(t, err)

	plan, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.getByIDCalls)
	assert.True(t, plan.TotalPrice.Equal(decimal.NewFromInt(480000)))
}

func TestPlanRepository_NotFoundIsNotCached(t *testing.T) {
	cache, _ := newTestCache(t)
	inner := &countingPlanRepo{MockPlanRepository: testutil.NewMockPlanRepository()}
	repo := NewPlanRepository(inner, cache)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	_, err = repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	assert.Equal(t, 2, inner.getByIDCalls)
}

func TestPlanRepository_DegradesWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	inner := &countingPlanRepo{MockPlanRepository: testutil.NewMockPlanRepository()}
	inner.AddPlan(samplePlan(1))
	repo := NewPlanRepository(inner, cache)
	mr.Close()

	plans, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 1)
	assert.Equal(t, 1, inner.getAllCalls)
}

func TestPaymentRepository_WriteInvalidatesPaymentsAndPlans(t *testing.T) {
	cache, _ := newTestCache(t)
	plans := testutil.NewMockPlanRepository()
	plans.AddPlan(samplePlan(1))
	inner := &countingPaymentRepo{MockPaymentRepository: testutil.NewMockPaymentRepository()}
	inner.Plans = plans
	repo := NewPaymentRepository(inner, cache)
	ctx := context.Background()

	payments, err := repo.GetByPlanID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, payments)
	_, err = repo.GetByPlanID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.getByPlanCalls)

	planVersion, err := cache.Version(ctx, CollectionPlans)
	require.NoError(t, err)

	n := int32(1)
	_, err = repo.Create(ctx, &domain.Payment{PlanID: 1, AmountPaid: decimal.NewFromInt(35000), PaymentType: domain.PaymentTypeMonthly, InstallmentNumber: &n})
	require.NoError(t, err)

	payments, err = repo.GetByPlanID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, 2, inner.getByPlanCalls)

	bumped, err := cache.Version(ctx, CollectionPlans)
	require.NoError(t, err)
	assert.Equal(t, planVersion+1, bumped)
}

func TestFetchJSON_NilCacheCallsLoader(t *testing.T) {
	var c *Cache
	var out []int
	err := c.FetchJSON(context.Background(), CollectionPlans, nil, &out, func(context.Context) (interface{}, error) {
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out)
}
