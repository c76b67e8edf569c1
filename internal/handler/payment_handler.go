package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment and receipt HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
	receiptService *service.ReceiptService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService, receiptService *service.ReceiptService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		receiptService: receiptService,
	}
}

// PaymentRequest represents the record and correct payment request body
type PaymentRequest struct {
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	PaymentDate       string          `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	ReceivedBy        string          `json:"receivedBy" validate:"required,max=100"`
	PaymentType       string          `json:"paymentType" validate:"required,oneof=monthly advance_adjustment commission discount"`
	InstallmentNumber *int32          `json:"installmentNumber,omitempty"`
	Notes             *string         `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r PaymentRequest) toInput() service.PaymentInput {
	return service.PaymentInput{
		AmountPaid:        r.AmountPaid,
		PaymentDate:       parseDate(r.PaymentDate),
		ReceivedBy:        r.ReceivedBy,
		PaymentType:       domain.PaymentType(r.PaymentType),
		InstallmentNumber: r.InstallmentNumber,
		Notes:             r.Notes,
	}
}

// RecordPayment handles POST /api/v1/plans/:id/payments
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	planID, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	var req PaymentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	payment, err := h.paymentService.RecordPayment(c.Request().Context(), planID, req.toInput())
	if err != nil {
		return respondError(c, err, "record payment")
	}
	return c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

// GetPlanPayments handles GET /api/v1/plans/:id/payments
func (h *PaymentHandler) GetPlanPayments(c echo.Context) error {
	planID, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	payments, err := h.paymentService.ListPayments(c.Request().Context(), planID)
	if err != nil {
		return respondError(c, err, "list payments")
	}
	return c.JSON(http.StatusOK, toPaymentResponses(payments))
}

// GetPayments handles GET /api/v1/payments?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	var errs []ValidationError
	if from == "" || parseDate(from).IsZero() {
		errs = append(errs, ValidationError{Field: "from", Message: "Must be a date in YYYY-MM-DD format"})
	}
	if to == "" || parseDate(to).IsZero() {
		errs = append(errs, ValidationError{Field: "to", Message: "Must be a date in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return NewValidationError(c, "Invalid date range", errs)
	}

	payments, err := h.paymentService.ListPaymentsBetween(c.Request().Context(), parseDate(from), parseDate(to))
	if err != nil {
		return respondError(c, err, "list payments")
	}
	return c.JSON(http.StatusOK, toPaymentResponses(payments))
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	payment, err := h.paymentService.GetPayment(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get payment")
	}
	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// UpdatePayment handles PUT /api/v1/payments/:id
func (h *PaymentHandler) UpdatePayment(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	var req PaymentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	payment, err := h.paymentService.UpdatePayment(c.Request().Context(), id, req.toInput())
	if err != nil {
		return respondError(c, err, "update payment")
	}
	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// DeletePayment handles DELETE /api/v1/payments/:id
func (h *PaymentHandler) DeletePayment(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	if err := h.paymentService.DeletePayment(c.Request().Context(), id); err != nil {
		return respondError(c, err, "delete payment")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetReceipt handles GET /api/v1/payments/:id/receipt and streams the PDF
func (h *PaymentHandler) GetReceipt(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	pdf, err := h.receiptService.GenerateReceipt(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "generate receipt")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="receipt-%d.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// ArchiveReceipt handles POST /api/v1/payments/:id/receipt/archive
func (h *PaymentHandler) ArchiveReceipt(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	archive, err := h.receiptService.ArchiveReceipt(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "archive receipt")
	}
	return c.JSON(http.StatusCreated, archive)
}
