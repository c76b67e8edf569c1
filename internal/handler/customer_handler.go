package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// GuarantorRequest is the optional guarantor block of a customer
type GuarantorRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	NationalID string `json:"nationalId" validate:"max=50"`
	Phone      string `json:"phone" validate:"max=50"`
	Address    string `json:"address" validate:"max=500"`
}

// ChequeRequest is the optional security cheque of a customer
type ChequeRequest struct {
	BankName     string `json:"bankName" validate:"required,max=100"`
	ChequeNumber string `json:"chequeNumber" validate:"required,max=50"`
}

// CustomerRequest represents the create and update customer request body
type CustomerRequest struct {
	Name       string            `json:"name" validate:"required,max=200"`
	NationalID string            `json:"nationalId" validate:"required,max=50"`
	Phone      string            `json:"phone" validate:"required,max=50"`
	Address    string            `json:"address" validate:"max=500"`
	Guarantor  *GuarantorRequest `json:"guarantor,omitempty"`
	Cheque     *ChequeRequest    `json:"cheque,omitempty"`
}

func (r CustomerRequest) toInput() service.CustomerInput {
	input := service.CustomerInput{
		Name:       r.Name,
		NationalID: r.NationalID,
		Phone:      r.Phone,
		Address:    r.Address,
	}
	if r.Guarantor != nil {
		input.Guarantor = &domain.Guarantor{
			Name:       r.Guarantor.Name,
			NationalID: r.Guarantor.NationalID,
			Phone:      r.Guarantor.Phone,
			Address:    r.Guarantor.Address,
		}
	}
	if r.Cheque != nil {
		input.Cheque = &domain.ChequeDetails{
			BankName:     r.Cheque.BankName,
			ChequeNumber: r.Cheque.ChequeNumber,
		}
	}
	return input
}

// CreateCustomer handles POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	var req CustomerRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	customer, err := h.customerService.CreateCustomer(c.Request().Context(), req.toInput())
	if err != nil {
		return respondError(c, err, "create customer")
	}

	log.Info().Int32("customer_id", customer.ID).Msg("Customer created")
	return c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles GET /api/v1/customers?q=
func (h *CustomerHandler) GetCustomers(c echo.Context) error {
	customers, err := h.customerService.ListCustomers(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return respondError(c, err, "list customers")
	}
	return c.JSON(http.StatusOK, customers)
}

// GetCustomer handles GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	customer, err := h.customerService.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get customer")
	}
	return c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	var req CustomerRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	customer, err := h.customerService.UpdateCustomer(c.Request().Context(), id, req.toInput())
	if err != nil {
		return respondError(c, err, "update customer")
	}

	log.Info().Int32("customer_id", customer.ID).Msg("Customer updated")
	return c.JSON(http.StatusOK, customer)
}

// GetCustomerPlans handles GET /api/v1/customers/:id/plans
func (h *CustomerHandler) GetCustomerPlans(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	plans, err := h.customerService.GetCustomerPlans(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "get customer plans")
	}

	response := make([]PlanResponse, len(plans))
	for i, p := range plans {
		response[i] = toPlanResponse(p)
	}
	return c.JSON(http.StatusOK, response)
}
