package cache

import (
	"context"
	"strconv"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
)

// PlanRepository caches the plan loader in front of another domain.PlanRepository.
// Writes go to the wrapped repository and then invalidate the plan collection.
type PlanRepository struct {
	next  domain.PlanRepository
	cache *Cache
}

var _ domain.PlanRepository = (*PlanRepository)(nil)

// NewPlanRepository wraps next with the cache
func NewPlanRepository(next domain.PlanRepository, cache *Cache) *PlanRepository {
	return &PlanRepository{next: next, cache: cache}
}

func (r *PlanRepository) GetAll(ctx context.Context) ([]*domain.InstallmentPlan, error) {
	var plans []*domain.InstallmentPlan
	err := r.cache.FetchJSON(ctx, CollectionPlans, []string{"all"}, &plans, func(ctx context.Context) (interface{}, error) {
		return r.next.GetAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id int32) (*domain.InstallmentPlan, error) {
	var plan domain.InstallmentPlan
	err := r.cache.FetchJSON(ctx, CollectionPlans, []string{"id", strconv.Itoa(int(id))}, &plan, func(ctx context.Context) (interface{}, error) {
		return r.next.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) GetByCustomerID(ctx context.Context, customerID int32) ([]*domain.InstallmentPlan, error) {
	return r.next.GetByCustomerID(ctx, customerID)
}

func (r *PlanRepository) CreateWithSale(ctx context.Context, plan *domain.InstallmentPlan) (*domain.InstallmentPlan, error) {
	created, err := r.next.CreateWithSale(ctx, plan)
	if err != nil {
		return nil, err
	}
	r.cache.Bump(ctx, CollectionPlans)
	return created, nil
}

func (r *PlanRepository) UpdateTerms(ctx context.Context, id int32, terms domain.PlanTerms) (*domain.InstallmentPlan, error) {
	updated, err := r.next.UpdateTerms(ctx, id, terms)
	if err != nil {
		return nil, err
	}
	r.cache.Bump(ctx, CollectionPlans)
	return updated, nil
}
