package service

import (
	"context"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// portfolio is every plan with every payment, loaded as one consistent read set
type portfolio struct {
	plans    []*domain.InstallmentPlan
	payments []*domain.Payment
}

// loadPortfolio loads plans and payments concurrently. Either failure aborts the whole read.
func loadPortfolio(ctx context.Context, planRepo domain.PlanRepository, paymentRepo domain.PaymentRepository) (portfolio, error) {
	var data portfolio
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		plans, err := planRepo.GetAll(ctx)
		if err != nil {
			return domain.NewLoadError("plans", err)
		}
		data.plans = plans
		return nil
	})

	g.Go(func() error {
		payments, err := paymentRepo.GetAll(ctx)
		if err != nil {
			return domain.NewLoadError("payments", err)
		}
		data.payments = payments
		return nil
	})

	if err := g.Wait(); err != nil {
		return portfolio{}, err
	}
	return data, nil
}

// loadPlanWithPayments loads one plan and its payments concurrently
func loadPlanWithPayments(ctx context.Context, planRepo domain.PlanRepository, paymentRepo domain.PaymentRepository, planID int32) (*domain.InstallmentPlan, []*domain.Payment, error) {
	var (
		plan     *domain.InstallmentPlan
		payments []*domain.Payment
	)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := planRepo.GetByID(ctx, planID)
		if err != nil {
			return domain.NewLoadError("plan", err)
		}
		plan = p
		return nil
	})

	g.Go(func() error {
		p, err := paymentRepo.GetByPlanID(ctx, planID)
		if err != nil {
			return domain.NewLoadError("payments by plan", err)
		}
		payments = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return plan, payments, nil
}
