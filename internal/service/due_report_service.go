package service

import (
	"context"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
)

// DueReportService produces the monthly collections report
type DueReportService struct {
	planRepo    domain.PlanRepository
	paymentRepo domain.PaymentRepository
	reconciler  *Reconciler
	allocation  Allocation
	now         func() time.Time
}

// NewDueReportService creates a new DueReportService
func NewDueReportService(planRepo domain.PlanRepository, paymentRepo domain.PaymentRepository, reconciler *Reconciler, allocation Allocation) *DueReportService {
	return &DueReportService{
		planRepo:    planRepo,
		paymentRepo: paymentRepo,
		reconciler:  reconciler,
		allocation:  allocation,
		now:         time.Now,
	}
}

// GetReport loads every plan and payment and builds the due report for the
// month. Year and month default to the current month when zero.
func (s *DueReportService) GetReport(ctx context.Context, year, month int) (*domain.DueReport, error) {
	today := s.now()
	if year == 0 && month == 0 {
		year, month = today.Year(), int(today.Month())
	}
	if month < 1 || month > 12 {
		return nil, domain.Invalid("month", domain.ErrInvalidInput)
	}
	if year < 2000 || year > 2100 {
		return nil, domain.Invalid("year", domain.ErrInvalidInput)
	}

	data, err := loadPortfolio(ctx, s.planRepo, s.paymentRepo)
	if err != nil {
		return nil, err
	}

	report := BuildDueReport(year, month, data.plans, data.payments, s.reconciler, s.allocation, today)
	return &report, nil
}
