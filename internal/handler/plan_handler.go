package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
	"github.com/shopspring/decimal"
)

// PlanHandler handles installment plan HTTP requests
type PlanHandler struct {
	planService *service.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// AdvancePaymentRequest is one advance entry; the first is the amount taken at signing
type AdvancePaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date" validate:"required,datetime=2006-01-02"`
}

// PlanTermsRequest carries the financial terms shared by create and correct
type PlanTermsRequest struct {
	TotalPrice         decimal.Decimal         `json:"totalPrice"`
	AdvancePayments    []AdvancePaymentRequest `json:"advancePayments" validate:"dive"`
	MonthlyInstallment decimal.Decimal         `json:"monthlyInstallment"`
	DurationMonths     int32                   `json:"durationMonths" validate:"gte=0"`
	ShowroomCommission decimal.Decimal         `json:"showroomCommission"`
}

// CreatePlanRequest represents the sell-on-installments request body
type CreatePlanRequest struct {
	CustomerID         int32                   `json:"customerId" validate:"required,gt=0"`
	RikshawID          int32                   `json:"rikshawId" validate:"required,gt=0"`
	AgreementDate      string                  `json:"agreementDate" validate:"required,datetime=2006-01-02"`
	TotalPrice         decimal.Decimal         `json:"totalPrice"`
	AdvancePayments    []AdvancePaymentRequest `json:"advancePayments" validate:"dive"`
	MonthlyInstallment decimal.Decimal         `json:"monthlyInstallment"`
	DurationMonths     int32                   `json:"durationMonths" validate:"gte=0"`
	ShowroomCommission decimal.Decimal         `json:"showroomCommission"`
}

func toAdvances(requests []AdvancePaymentRequest) []domain.AdvancePayment {
	result := make([]domain.AdvancePayment, len(requests))
	for i, a := range requests {
		result[i] = domain.AdvancePayment{Amount: a.Amount, Date: parseDate(a.Date)}
	}
	return result
}

// CreatePlan handles POST /api/v1/plans
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	var req CreatePlanRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	plan, err := h.planService.CreatePlan(c.Request().Context(), service.PlanInput{
		CustomerID:         req.CustomerID,
		RikshawID:          req.RikshawID,
		TotalPrice:         req.TotalPrice,
		AdvancePayments:    toAdvances(req.AdvancePayments),
		MonthlyInstallment: req.MonthlyInstallment,
		DurationMonths:     req.DurationMonths,
		AgreementDate:      parseDate(req.AgreementDate),
		ShowroomCommission: req.ShowroomCommission,
	})
	if err != nil {
		return respondError(c, err, "create plan")
	}
	return c.JSON(http.StatusCreated, toPlanResponse(plan))
}

// GetPlans handles GET /api/v1/plans?status=
func (h *PlanHandler) GetPlans(c echo.Context) error {
	var status *domain.PlanStatus
	if v := c.QueryParam("status"); v != "" {
		s := domain.PlanStatus(v)
		status = &s
	}

	summaries, err := h.planService.ListPlans(c.Request().Context(), status)
	if err != nil {
		return respondError(c, err, "list plans")
	}

	response := make([]PlanSummaryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = PlanSummaryResponse{Plan: toPlanResponse(s.Plan), Reconciliation: s.Reconciliation}
	}
	return c.JSON(http.StatusOK, response)
}

// GetPlan handles GET /api/v1/plans/:id
func (h *PlanHandler) GetPlan(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	detail, err := h.planService.GetPlanDetail(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get plan")
	}

	return c.JSON(http.StatusOK, PlanDetailResponse{
		Plan:           toPlanResponse(detail.Plan),
		Payments:       toPaymentResponses(detail.Payments),
		Reconciliation: detail.Reconciliation,
		Schedule:       toScheduleResponse(detail.Schedule),
	})
}

// GetSchedule handles GET /api/v1/plans/:id/schedule
func (h *PlanHandler) GetSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	rows, err := h.planService.GetSchedule(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get schedule")
	}
	return c.JSON(http.StatusOK, toScheduleResponse(rows))
}

// UpdateTerms handles PUT /api/v1/plans/:id/terms
func (h *PlanHandler) UpdateTerms(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	var req PlanTermsRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	plan, err := h.planService.UpdateTerms(c.Request().Context(), id, service.PlanTermsInput{
		TotalPrice:         req.TotalPrice,
		AdvancePayments:    toAdvances(req.AdvancePayments),
		MonthlyInstallment: req.MonthlyInstallment,
		DurationMonths:     req.DurationMonths,
		ShowroomCommission: req.ShowroomCommission,
	})
	if err != nil {
		return respondError(c, err, "update plan terms")
	}
	return c.JSON(http.StatusOK, toPlanResponse(plan))
}
