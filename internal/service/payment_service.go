package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/metrics"
	"github.com/rikshawmart/rikshawmart-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentService records and corrects payment events
type PaymentService struct {
	paymentRepo    domain.PaymentRepository
	planRepo       domain.PlanRepository
	eventPublisher websocket.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(paymentRepo domain.PaymentRepository, planRepo domain.PlanRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		planRepo:    planRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent sends the event to the plan's topic and the dashboard
func (s *PaymentService) publishEvent(planID int32, event websocket.Event) {
	if s.eventPublisher == nil {
		return
	}
	s.eventPublisher.Publish(websocket.PlanTopic(planID), event)
	s.eventPublisher.Publish(websocket.TopicDashboard, event)
}

// PaymentInput contains the fields of a payment event
type PaymentInput struct {
	AmountPaid        decimal.Decimal
	PaymentDate       time.Time
	ReceivedBy        string
	PaymentType       domain.PaymentType
	InstallmentNumber *int32
	Notes             *string
}

func (in PaymentInput) toDomain(planID int32) *domain.Payment {
	p := &domain.Payment{
		PlanID:            planID,
		AmountPaid:        in.AmountPaid,
		PaymentDate:       dateOnly(in.PaymentDate),
		ReceivedBy:        strings.TrimSpace(in.ReceivedBy),
		PaymentType:       in.PaymentType,
		InstallmentNumber: in.InstallmentNumber,
	}
	if in.Notes != nil {
		if notes := strings.TrimSpace(*in.Notes); notes != "" {
			p.Notes = &notes
		}
	}
	return p
}

// planFor loads the target plan; an unknown plan is a validation failure of the payment
func (s *PaymentService) planFor(ctx context.Context, planID int32) (*domain.InstallmentPlan, error) {
	if planID <= 0 {
		return nil, domain.Invalid("planId", domain.ErrPaymentPlanRequired)
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return nil, domain.Invalid("planId", domain.ErrPlanNotFound)
		}
		return nil, domain.NewLoadError("plan", err)
	}
	return plan, nil
}

// RecordPayment validates and appends a payment event to a plan
func (s *PaymentService) RecordPayment(ctx context.Context, planID int32, input PaymentInput) (*domain.Payment, error) {
	plan, err := s.planFor(ctx, planID)
	if err != nil {
		return nil, err
	}

	payment := input.toDomain(plan.ID)
	if err := payment.Validate(plan); err != nil {
		return nil, err
	}

	created, err := s.paymentRepo.Create(ctx, payment)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues(string(created.PaymentType)).Inc()
	log.Info().Int32("plan_id", created.PlanID).Int32("payment_id", created.ID).
		Str("type", string(created.PaymentType)).Str("amount", created.AmountPaid.String()).Msg("Payment recorded")
	s.publishEvent(created.PlanID, websocket.PaymentRecorded(created))
	return created, nil
}

// UpdatePayment corrects a recorded payment. The plan link cannot change.
func (s *PaymentService) UpdatePayment(ctx context.Context, id int32, input PaymentInput) (*domain.Payment, error) {
	existing, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.planFor(ctx, existing.PlanID)
	if err != nil {
		return nil, err
	}

	payment := input.toDomain(existing.PlanID)
	payment.ID = existing.ID
	if err := payment.Validate(plan); err != nil {
		return nil, err
	}

	updated, err := s.paymentRepo.Update(ctx, payment)
	if err != nil {
		return nil, err
	}

	log.Info().Int32("plan_id", updated.PlanID).Int32("payment_id", updated.ID).Msg("Payment corrected")
	s.publishEvent(updated.PlanID, websocket.PaymentUpdated(updated))
	return updated, nil
}

// DeletePayment removes a payment recorded in error
func (s *PaymentService) DeletePayment(ctx context.Context, id int32) error {
	existing, err := s.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int32("plan_id", existing.PlanID).Int32("payment_id", id).Msg("Payment deleted")
	s.publishEvent(existing.PlanID, websocket.PaymentDeleted(map[string]int32{"id": id, "planId": existing.PlanID}))
	return nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id int32) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewLoadError("payment", err)
	}
	return payment, nil
}

// ListPayments returns the payment history of a plan
func (s *PaymentService) ListPayments(ctx context.Context, planID int32) ([]*domain.Payment, error) {
	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		return nil, domain.NewLoadError("plan", err)
	}
	payments, err := s.paymentRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, domain.NewLoadError("payments by plan", err)
	}
	return payments, nil
}

// ListPaymentsBetween returns every payment dated within [from, to], oldest first
func (s *PaymentService) ListPaymentsBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error) {
	from, to = dateOnly(from), dateOnly(to)
	if from.IsZero() {
		return nil, domain.Invalid("from", domain.ErrPaymentDateEmpty)
	}
	if to.IsZero() {
		return nil, domain.Invalid("to", domain.ErrPaymentDateEmpty)
	}
	if from.After(to) {
		return nil, domain.Invalid("from", domain.ErrPaymentRangeInvalid)
	}

	payments, err := s.paymentRepo.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, domain.NewLoadError("payments by date", err)
	}
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].PaymentDate.Before(payments[j].PaymentDate)
		}
		return payments[i].ID < payments[j].ID
	})
	return payments, nil
}
