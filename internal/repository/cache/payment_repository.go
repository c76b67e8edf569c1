package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
)

// PaymentRepository caches the payment loader in front of another domain.PaymentRepository.
// Payment writes also refresh plan-level hints, so they invalidate both collections.
type PaymentRepository struct {
	next  domain.PaymentRepository
	cache *Cache
}

var _ domain.PaymentRepository = (*PaymentRepository)(nil)

// NewPaymentRepository wraps next with the cache
func NewPaymentRepository(next domain.PaymentRepository, cache *Cache) *PaymentRepository {
	return &PaymentRepository{next: next, cache: cache}
}

func (r *PaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := r.cache.FetchJSON(ctx, CollectionPayments, []string{"all"}, &payments, func(ctx context.Context) (interface{}, error) {
		return r.next.GetAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) GetByPlanID(ctx context.Context, planID int32) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := r.cache.FetchJSON(ctx, CollectionPayments, []string{"plan", strconv.Itoa(int(planID))}, &payments, func(ctx context.Context) (interface{}, error) {
		return r.next.GetByPlanID(ctx, planID)
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	return r.next.GetByID(ctx, id)
}

func (r *PaymentRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Payment, error) {
	return r.next.GetByDateRange(ctx, start, end)
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	created, err := r.next.Create(ctx, payment)
	if err != nil {
		return nil, err
	}
	r.cache.Bump(ctx, CollectionPayments, CollectionPlans)
	return created, nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	updated, err := r.next.Update(ctx, payment)
	if err != nil {
		return nil, err
	}
	r.cache.Bump(ctx, CollectionPayments, CollectionPlans)
	return updated, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id int32) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Bump(ctx, CollectionPayments, CollectionPlans)
	return nil
}
