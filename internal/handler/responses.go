package handler

import (
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// AdvancePaymentResponse is one advance entry in API responses
type AdvancePaymentResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// PlanResponse represents an installment plan in API responses
type PlanResponse struct {
	ID                 int32                    `json:"id"`
	CustomerID         int32                    `json:"customerId"`
	RikshawID          int32                    `json:"rikshawId"`
	TotalPrice         decimal.Decimal          `json:"totalPrice"`
	AdvancePayments    []AdvancePaymentResponse `json:"advancePayments"`
	MonthlyInstallment decimal.Decimal          `json:"monthlyInstallment"`
	DurationMonths     int32                    `json:"durationMonths"`
	AgreementDate      string                   `json:"agreementDate"`
	ShowroomCommission decimal.Decimal          `json:"showroomCommission"`
	IsCommissionPaid   bool                     `json:"isCommissionPaid"`
	TotalPaidMonthly   decimal.Decimal          `json:"totalPaidMonthly"`
	Customer           domain.CustomerSnapshot  `json:"customer"`
	Rikshaw            domain.RikshawSnapshot   `json:"rikshaw"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                int32           `json:"id"`
	PlanID            int32           `json:"planId"`
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	PaymentDate       string          `json:"paymentDate"`
	ReceivedBy        string          `json:"receivedBy"`
	PaymentType       string          `json:"paymentType"`
	InstallmentNumber *int32          `json:"installmentNumber,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ScheduleRowResponse is one monthly period in API responses
type ScheduleRowResponse struct {
	InstallmentNumber int32           `json:"installmentNumber"`
	DueDate           string          `json:"dueDate"`
	ExpectedAmount    decimal.Decimal `json:"expectedAmount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	Remaining         decimal.Decimal `json:"remaining"`
	Status            string          `json:"status"`
	Overdue           bool            `json:"overdue"`
}

// PlanSummaryResponse is a plan with its reconciliation in listings
type PlanSummaryResponse struct {
	Plan           PlanResponse          `json:"plan"`
	Reconciliation domain.Reconciliation `json:"reconciliation"`
}

// PlanDetailResponse is the full view of one plan
type PlanDetailResponse struct {
	Plan           PlanResponse          `json:"plan"`
	Payments       []PaymentResponse     `json:"payments"`
	Reconciliation domain.Reconciliation `json:"reconciliation"`
	Schedule       []ScheduleRowResponse `json:"schedule"`
}

// DueItemResponse is one outstanding obligation in the due report
type DueItemResponse struct {
	Kind              string          `json:"kind"`
	InstallmentNumber *int32          `json:"installmentNumber,omitempty"`
	DueDate           string          `json:"dueDate"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
}

// DueGroupResponse groups the due items of one plan
type DueGroupResponse struct {
	PlanID          int32                   `json:"planId"`
	CustomerID      int32                   `json:"customerId"`
	Customer        domain.CustomerSnapshot `json:"customer"`
	Rikshaw         domain.RikshawSnapshot  `json:"rikshaw"`
	Items           []DueItemResponse       `json:"items"`
	TotalAmountDue  decimal.Decimal         `json:"totalAmountDue"`
	OverallStatus   string                  `json:"overallStatus"`
	EarliestDueDate string                  `json:"earliestDueDate"`
}

// DueReportResponse is the collections report for one month
type DueReportResponse struct {
	Year        int                     `json:"year"`
	Month       int                     `json:"month"`
	Groups      []DueGroupResponse      `json:"groups"`
	TotalDue    decimal.Decimal         `json:"totalDue"`
	OverdueDue  decimal.Decimal         `json:"overdueDue"`
	Warnings    []domain.IntegrityError `json:"warnings"`
	GeneratedAt string                  `json:"generatedAt"`
}

func toPlanResponse(p *domain.InstallmentPlan) PlanResponse {
	advances := make([]AdvancePaymentResponse, len(p.AdvancePayments))
	for i, a := range p.AdvancePayments {
		advances[i] = AdvancePaymentResponse{Amount: a.Amount, Date: formatDate(a.Date)}
	}
	return PlanResponse{
		ID:                 p.ID,
		CustomerID:         p.CustomerID,
		RikshawID:          p.RikshawID,
		TotalPrice:         p.TotalPrice,
		AdvancePayments:    advances,
		MonthlyInstallment: p.MonthlyInstallment,
		DurationMonths:     p.DurationMonths,
		AgreementDate:      formatDate(p.AgreementDate),
		ShowroomCommission: p.ShowroomCommission,
		IsCommissionPaid:   p.IsCommissionPaid,
		TotalPaidMonthly:   p.TotalPaidMonthly,
		Customer:           p.Customer,
		Rikshaw:            p.Rikshaw,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		PlanID:            p.PlanID,
		AmountPaid:        p.AmountPaid,
		PaymentDate:       formatDate(p.PaymentDate),
		ReceivedBy:        p.ReceivedBy,
		PaymentType:       string(p.PaymentType),
		InstallmentNumber: p.InstallmentNumber,
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toPaymentResponses(payments []*domain.Payment) []PaymentResponse {
	result := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = toPaymentResponse(p)
	}
	return result
}

func toScheduleResponse(rows []domain.ScheduleRow) []ScheduleRowResponse {
	result := make([]ScheduleRowResponse, len(rows))
	for i, r := range rows {
		result[i] = ScheduleRowResponse{
			InstallmentNumber: r.InstallmentNumber,
			DueDate:           formatDate(r.DueDate),
			ExpectedAmount:    r.ExpectedAmount,
			PaidAmount:        r.PaidAmount,
			Remaining:         r.Remaining(),
			Status:            string(r.Status),
			Overdue:           r.Overdue,
		}
	}
	return result
}

func toDueReportResponse(report *domain.DueReport) DueReportResponse {
	groups := make([]DueGroupResponse, len(report.Groups))
	for i, g := range report.Groups {
		items := make([]DueItemResponse, len(g.Items))
		for j, item := range g.Items {
			items[j] = DueItemResponse{
				Kind:              string(item.Kind),
				InstallmentNumber: item.InstallmentNumber,
				DueDate:           formatDate(item.DueDate),
				Amount:            item.Amount,
				Status:            string(item.Status),
			}
		}
		groups[i] = DueGroupResponse{
			PlanID:          g.PlanID,
			CustomerID:      g.CustomerID,
			Customer:        g.Customer,
			Rikshaw:         g.Rikshaw,
			Items:           items,
			TotalAmountDue:  g.TotalAmountDue,
			OverallStatus:   string(g.OverallStatus),
			EarliestDueDate: formatDate(g.EarliestDue),
		}
	}

	warnings := report.Warnings
	if warnings == nil {
		warnings = []domain.IntegrityError{}
	}
	return DueReportResponse{
		Year:        report.Year,
		Month:       report.Month,
		Groups:      groups,
		TotalDue:    report.TotalDue,
		OverdueDue:  report.OverdueDue,
		Warnings:    warnings,
		GeneratedAt: formatDate(report.GeneratedAt),
	}
}
