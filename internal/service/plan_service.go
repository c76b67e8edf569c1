package service

import (
	"context"
	"errors"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/util"
	"github.com/rikshawmart/rikshawmart-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PlanService handles the sale workflow and plan queries
type PlanService struct {
	planRepo       domain.PlanRepository
	paymentRepo    domain.PaymentRepository
	customerRepo   domain.CustomerRepository
	rikshawRepo    domain.RikshawRepository
	reconciler     *Reconciler
	allocation     Allocation
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewPlanService creates a new PlanService
func NewPlanService(planRepo domain.PlanRepository, paymentRepo domain.PaymentRepository, customerRepo domain.CustomerRepository, rikshawRepo domain.RikshawRepository, reconciler *Reconciler, allocation Allocation) *PlanService {
	return &PlanService{
		planRepo:     planRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		rikshawRepo:  rikshawRepo,
		reconciler:   reconciler,
		allocation:   allocation,
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PlanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PlanService) publishEvent(event websocket.Event, topics ...string) {
	if s.eventPublisher == nil {
		return
	}
	for _, topic := range topics {
		s.eventPublisher.Publish(topic, event)
	}
}

// PlanInput contains the terms of a new sale
type PlanInput struct {
	CustomerID         int32
	RikshawID          int32
	TotalPrice         decimal.Decimal
	AdvancePayments    []domain.AdvancePayment
	MonthlyInstallment decimal.Decimal
	DurationMonths     int32
	AgreementDate      time.Time
	ShowroomCommission decimal.Decimal
}

// CreatePlan validates the sale and then, in one transaction, records the plan
// and marks the vehicle sold at the plan's total price
func (s *PlanService) CreatePlan(ctx context.Context, input PlanInput) (*domain.InstallmentPlan, error) {
	plan := &domain.InstallmentPlan{
		CustomerID:         input.CustomerID,
		RikshawID:          input.RikshawID,
		TotalPrice:         input.TotalPrice,
		AdvancePayments:    normalizeAdvances(input.AdvancePayments),
		MonthlyInstallment: input.MonthlyInstallment,
		DurationMonths:     input.DurationMonths,
		AgreementDate:      dateOnly(input.AgreementDate),
		ShowroomCommission: input.ShowroomCommission,
		TotalPaidMonthly:   decimal.Zero,
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.GetByID(ctx, plan.CustomerID); err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, domain.Invalid("customerId", domain.ErrCustomerNotFound)
		}
		return nil, domain.NewLoadError("customer", err)
	}

	rikshaw, err := s.rikshawRepo.GetByID(ctx, plan.RikshawID)
	if err != nil {
		if errors.Is(err, domain.ErrRikshawNotFound) {
			return nil, domain.Invalid("rikshawId", domain.ErrRikshawNotFound)
		}
		return nil, domain.NewLoadError("rikshaw", err)
	}
	if rikshaw.IsSold() {
		return nil, domain.ErrRikshawAlreadySold
	}

	created, err := s.planRepo.CreateWithSale(ctx, plan)
	if err != nil {
		return nil, err
	}

	log.Info().Int32("plan_id", created.ID).Int32("customer_id", created.CustomerID).Int32("rikshaw_id", created.RikshawID).
		Str("total_price", created.TotalPrice.String()).Msg("Installment plan created")
	s.publishEvent(websocket.PlanCreated(created), websocket.TopicDashboard)
	return created, nil
}

// PlanTermsInput contains the financial terms an administrator may correct
type PlanTermsInput struct {
	TotalPrice         decimal.Decimal
	AdvancePayments    []domain.AdvancePayment
	MonthlyInstallment decimal.Decimal
	DurationMonths     int32
	ShowroomCommission decimal.Decimal
}

// UpdateTerms corrects a plan's terms with the same validation as creation.
// Payments already tagged beyond a shortened duration are left as they are.
func (s *PlanService) UpdateTerms(ctx context.Context, id int32, input PlanTermsInput) (*domain.InstallmentPlan, error) {
	existing, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewLoadError("plan", err)
	}

	proposed := *existing
	proposed.TotalPrice = input.TotalPrice
	proposed.AdvancePayments = normalizeAdvances(input.AdvancePayments)
	proposed.MonthlyInstallment = input.MonthlyInstallment
	proposed.DurationMonths = input.DurationMonths
	proposed.ShowroomCommission = input.ShowroomCommission
	if err := proposed.ValidateTerms(); err != nil {
		return nil, err
	}

	updated, err := s.planRepo.UpdateTerms(ctx, id, domain.PlanTerms{
		TotalPrice:         proposed.TotalPrice,
		AdvancePayments:    proposed.AdvancePayments,
		MonthlyInstallment: proposed.MonthlyInstallment,
		DurationMonths:     proposed.DurationMonths,
		ShowroomCommission: proposed.ShowroomCommission,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int32("plan_id", id).Msg("Installment plan terms corrected")
	s.publishEvent(websocket.PlanUpdated(updated), websocket.PlanTopic(id), websocket.TopicDashboard)
	return updated, nil
}

// GetPlanDetail returns the plan with its payments, reconciliation and schedule
func (s *PlanService) GetPlanDetail(ctx context.Context, id int32) (*domain.PlanDetail, error) {
	plan, payments, err := loadPlanWithPayments(ctx, s.planRepo, s.paymentRepo, id)
	if err != nil {
		return nil, err
	}

	today := s.now()
	rec := s.reconciler.Reconcile(plan, payments, today)
	return &domain.PlanDetail{
		Plan:           plan,
		Payments:       payments,
		Reconciliation: rec,
		Schedule:       s.reconciler.Schedule(plan, payments, rec, s.allocation, today),
	}, nil
}

// GetSchedule returns only the expanded schedule of a plan
func (s *PlanService) GetSchedule(ctx context.Context, id int32) ([]domain.ScheduleRow, error) {
	detail, err := s.GetPlanDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail.Schedule, nil
}

// ListPlans reconciles every plan and optionally keeps those with the given status
func (s *PlanService) ListPlans(ctx context.Context, status *domain.PlanStatus) ([]domain.PlanSummary, error) {
	if status != nil && !status.IsValid() {
		return nil, domain.Invalid("status", domain.ErrInvalidInput)
	}

	data, err := loadPortfolio(ctx, s.planRepo, s.paymentRepo)
	if err != nil {
		return nil, err
	}

	today := s.now()
	byPlan, _ := GroupPaymentsByPlan(data.plans, data.payments)
	summaries := make([]domain.PlanSummary, 0, len(data.plans))
	for _, plan := range data.plans {
		rec := s.reconciler.Reconcile(plan, byPlan[plan.ID], today)
		if status != nil && rec.Status != *status {
			continue
		}
		summaries = append(summaries, domain.PlanSummary{Plan: plan, Reconciliation: rec})
	}
	return summaries, nil
}

func normalizeAdvances(advances []domain.AdvancePayment) []domain.AdvancePayment {
	out := make([]domain.AdvancePayment, len(advances))
	for i, a := range advances {
		out[i] = domain.AdvancePayment{Amount: a.Amount, Date: dateOnly(a.Date)}
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return util.DateOnly(t)
}
