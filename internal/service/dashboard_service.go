package service

import (
	"context"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/util"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardService handles dashboard-related business logic
type DashboardService struct {
	planRepo     domain.PlanRepository
	paymentRepo  domain.PaymentRepository
	rikshawRepo  domain.RikshawRepository
	customerRepo domain.CustomerRepository
	reconciler   *Reconciler
	now          func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	planRepo domain.PlanRepository,
	paymentRepo domain.PaymentRepository,
	rikshawRepo domain.RikshawRepository,
	customerRepo domain.CustomerRepository,
	reconciler *Reconciler,
) *DashboardService {
	return &DashboardService{
		planRepo:     planRepo,
		paymentRepo:  paymentRepo,
		rikshawRepo:  rikshawRepo,
		customerRepo: customerRepo,
		reconciler:   reconciler,
		now:          time.Now,
	}
}

type dashboardData struct {
	portfolio
	rikshaws  []*domain.Rikshaw
	customers []*domain.Customer
}

func (s *DashboardService) load(ctx context.Context) (dashboardData, error) {
	var data dashboardData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := loadPortfolio(ctx, s.planRepo, s.paymentRepo)
		if err != nil {
			return err
		}
		data.portfolio = p
		return nil
	})

	g.Go(func() error {
		rikshaws, err := s.rikshawRepo.GetAll(ctx, nil)
		if err != nil {
			return domain.NewLoadError("rikshaws", err)
		}
		data.rikshaws = rikshaws
		return nil
	})

	g.Go(func() error {
		customers, err := s.customerRepo.GetAll(ctx)
		if err != nil {
			return domain.NewLoadError("customers", err)
		}
		data.customers = customers
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboardData{}, err
	}
	return data, nil
}

// GetSummary returns the business-wide figures as of today
func (s *DashboardService) GetSummary(ctx context.Context) (*domain.DashboardSummary, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildDashboardSummary(data.plans, data.payments, data.rikshaws, len(data.customers), s.reconciler, s.now()), nil
}

// BuildDashboardSummary aggregates reconciled plans and the inventory.
// Collected money is cash received: the signing advance, later advance
// payments and monthly installments. Discounts and commission are not cash
// from customers.
func BuildDashboardSummary(plans []*domain.InstallmentPlan, payments []*domain.Payment, rikshaws []*domain.Rikshaw, customerCount int, reconciler *Reconciler, today time.Time) *domain.DashboardSummary {
	today = util.DateOnly(today)
	summary := &domain.DashboardSummary{
		CustomerCount:         customerCount,
		PlanCount:             len(plans),
		TotalSalesValue:       decimal.Zero,
		TotalCollected:        decimal.Zero,
		TotalCustomerDebt:     decimal.Zero,
		OutstandingAdvance:    decimal.Zero,
		OutstandingCommission: decimal.Zero,
		GrossProfit:           decimal.Zero,
		InventoryValue:        decimal.Zero,
		CollectedThisMonth:    decimal.Zero,
	}

	// 1. Inventory
	for _, r := range rikshaws {
		summary.Inventory.Total++
		if r.IsSold() {
			summary.Inventory.Sold++
			summary.GrossProfit = summary.GrossProfit.Add(r.Profit())
		} else {
			summary.Inventory.Unsold++
			summary.InventoryValue = summary.InventoryValue.Add(r.PurchasePrice)
		}
	}

	// 2. Plans, reconciled one by one
	byPlan, warnings := GroupPaymentsByPlan(plans, payments)
	summary.IntegrityWarnings = len(warnings)
	for _, plan := range plans {
		rec := reconciler.Reconcile(plan, byPlan[plan.ID], today)
		summary.PlanStatus.Add(rec.Status)
		summary.TotalSalesValue = summary.TotalSalesValue.Add(plan.TotalPrice)
		summary.TotalCollected = summary.TotalCollected.
			Add(rec.InitialCollectedAdvance).
			Add(rec.AdvanceAdjustmentsPaid).
			Add(rec.TotalMonthlyPaid)
		summary.TotalCustomerDebt = summary.TotalCustomerDebt.Add(positive(rec.CustomerDebt))
		summary.OutstandingAdvance = summary.OutstandingAdvance.Add(rec.AdvanceOutstanding())
		summary.OutstandingCommission = summary.OutstandingCommission.Add(positive(rec.OutstandingCommission))
	}

	// 3. Cash received this calendar month
	monthStart, monthEnd := util.MonthBounds(today.Year(), int(today.Month()))
	for _, planPayments := range byPlan {
		for _, p := range planPayments {
			if p.PaymentType != domain.PaymentTypeMonthly && p.PaymentType != domain.PaymentTypeAdvanceAdjustment {
				continue
			}
			paid := util.DateOnly(p.PaymentDate)
			if paid.Before(monthStart) || paid.After(monthEnd) {
				continue
			}
			summary.CollectedThisMonth = summary.CollectedThisMonth.Add(p.AmountPaid)
		}
	}

	return summary
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
