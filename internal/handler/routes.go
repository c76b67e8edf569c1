package handler

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups every API handler for route registration
type Handlers struct {
	Customer  *CustomerHandler
	Rikshaw   *RikshawHandler
	Plan      *PlanHandler
	Payment   *PaymentHandler
	Dashboard *DashboardHandler
}

// RegisterRoutes sets up all API routes. writeLimit guards the mutating
// endpoints; pass nil to leave them unthrottled.
func RegisterRoutes(e *echo.Echo, h Handlers, writeLimit echo.MiddlewareFunc) {
	var limited []echo.MiddlewareFunc
	if writeLimit != nil {
		limited = append(limited, writeLimit)
	}

	// API version 1
	api := e.Group("/api/v1")

	// Customer routes
	customers := api.Group("/customers")
	customers.POST("", h.Customer.CreateCustomer, limited...)
	customers.GET("", h.Customer.GetCustomers)
	customers.GET("/:id", h.Customer.GetCustomer)
	customers.PUT("/:id", h.Customer.UpdateCustomer, limited...)
	customers.GET("/:id/plans", h.Customer.GetCustomerPlans)

	// Rikshaw inventory routes
	rikshaws := api.Group("/rikshaws")
	rikshaws.POST("", h.Rikshaw.CreateRikshaw, limited...)
	rikshaws.GET("", h.Rikshaw.GetRikshaws)
	rikshaws.GET("/:id", h.Rikshaw.GetRikshaw)
	rikshaws.PUT("/:id", h.Rikshaw.UpdateRikshaw, limited...)
	rikshaws.DELETE("/:id", h.Rikshaw.DeleteRikshaw, limited...)
	rikshaws.POST("/:id/photo", h.Rikshaw.UploadPhoto, limited...)
	rikshaws.GET("/:id/photo", h.Rikshaw.GetPhoto)

	// Installment plan routes
	plans := api.Group("/plans")
	plans.POST("", h.Plan.CreatePlan, limited...)
	plans.GET("", h.Plan.GetPlans)
	plans.GET("/:id", h.Plan.GetPlan)
	plans.GET("/:id/schedule", h.Plan.GetSchedule)
	plans.PUT("/:id/terms", h.Plan.UpdateTerms, limited...)
	plans.POST("/:id/payments", h.Payment.RecordPayment, limited...)
	plans.GET("/:id/payments", h.Payment.GetPlanPayments)

	// Payment routes
	payments := api.Group("/payments")
	payments.GET("", h.Payment.GetPayments)
	payments.GET("/:id", h.Payment.GetPayment)
	payments.PUT("/:id", h.Payment.UpdatePayment, limited...)
	payments.DELETE("/:id", h.Payment.DeletePayment, limited...)
	payments.GET("/:id/receipt", h.Payment.GetReceipt)
	payments.POST("/:id/receipt/archive", h.Payment.ArchiveReceipt, limited...)

	// Dashboard and report routes
	api.GET("/dashboard/summary", h.Dashboard.GetSummary)
	api.GET("/reports/due", h.Dashboard.GetDueReport)
}
