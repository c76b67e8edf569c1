package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DueKind tells a monthly due item from an advance due item
type DueKind string

const (
	DueKindMonthly DueKind = "Monthly"
	DueKindAdvance DueKind = "Advance Due"
)

// DueStatus is Overdue when the due date has passed, Due otherwise
type DueStatus string

const (
	DueStatusDue     DueStatus = "Due"
	DueStatusOverdue DueStatus = "Overdue"
)

// DueItem is one outstanding obligation of a plan
type DueItem struct {
	PlanID            int32           `json:"planId"`
	Kind              DueKind         `json:"kind"`
	InstallmentNumber *int32          `json:"installmentNumber,omitempty"`
	DueDate           time.Time       `json:"dueDate"`
	Amount            decimal.Decimal `json:"amount"`
	Status            DueStatus       `json:"status"`
}

// DueGroup aggregates all due items of one customer/plan combination
type DueGroup struct {
	PlanID         int32            `json:"planId"`
	CustomerID     int32            `json:"customerId"`
	Customer       CustomerSnapshot `json:"customer"`
	Rikshaw        RikshawSnapshot  `json:"rikshaw"`
	Items          []DueItem        `json:"items"`
	TotalAmountDue decimal.Decimal  `json:"totalAmountDue"`
	OverallStatus  DueStatus        `json:"overallStatus"`
	EarliestDue    time.Time        `json:"earliestDueDate"`
}

// DueReport is the collections report for one calendar month
type DueReport struct {
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Groups      []DueGroup       `json:"groups"`
	TotalDue    decimal.Decimal  `json:"totalDue"`
	OverdueDue  decimal.Decimal  `json:"overdueDue"`
	Warnings    []IntegrityError `json:"warnings,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
