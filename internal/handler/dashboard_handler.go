package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/service"
)

// DashboardHandler handles dashboard and report HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
	dueReportService *service.DueReportService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService, dueReportService *service.DueReportService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		dueReportService: dueReportService,
	}
}

// GetSummary handles GET /api/v1/dashboard/summary
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	summary, err := h.dashboardService.GetSummary(c.Request().Context())
	if err != nil {
		return respondError(c, err, "get dashboard summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetDueReport handles GET /api/v1/reports/due
// Accepts optional year and month query params; both default to the current month
func (h *DashboardHandler) GetDueReport(c echo.Context) error {
	year, month := 0, 0

	if yearStr := c.QueryParam("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			return NewValidationError(c, "Invalid year format", []ValidationError{{Field: "year", Message: "Must be a valid integer"}})
		}
		year = parsed
	}
	if monthStr := c.QueryParam("month"); monthStr != "" {
		parsed, err := strconv.Atoi(monthStr)
		if err != nil {
			return NewValidationError(c, "Invalid month format", []ValidationError{{Field: "month", Message: "Must be a valid integer"}})
		}
		month = parsed
	}
	if (year == 0) != (month == 0) {
		return NewValidationError(c, "Year and month must be given together", []ValidationError{
			{Field: "year", Message: "Year and month must be given together"},
		})
	}

	report, err := h.dueReportService.GetReport(c.Request().Context(), year, month)
	if err != nil {
		return respondError(c, err, "get due report")
	}
	return c.JSON(http.StatusOK, toDueReportResponse(report))
}
