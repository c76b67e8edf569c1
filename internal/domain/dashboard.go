package domain

import "github.com/shopspring/decimal"

// InventorySummary counts vehicles by availability
type InventorySummary struct {
	Total  int `json:"total"`
	Unsold int `json:"unsold"`
	Sold   int `json:"sold"`
}

// PlanStatusCounts counts plans per reconciled status
type PlanStatusCounts struct {
	Completed      int `json:"completed"`
	AdvancePending int `json:"advancePending"`
	Overdue        int `json:"overdue"`
	Active         int `json:"active"`
	NotActive      int `json:"notActive"`
}

// Add increments the counter for a status
func (c *PlanStatusCounts) Add(status PlanStatus) {
	switch status {
	case PlanStatusCompleted:
		c.Completed++
	case PlanStatusAdvancePending:
		c.AdvancePending++
	case PlanStatusOverdue:
		c.Overdue++
	case PlanStatusActive:
		c.Active++
	case PlanStatusNotActive:
		c.NotActive++
	}
}

// DashboardSummary contains the main dashboard metrics
type DashboardSummary struct {
	Inventory             InventorySummary `json:"inventory"`
	CustomerCount         int              `json:"customerCount"`
	PlanCount             int              `json:"planCount"`
	PlanStatus            PlanStatusCounts `json:"planStatus"`
	TotalSalesValue       decimal.Decimal  `json:"totalSalesValue"`
	TotalCollected        decimal.Decimal  `json:"totalCollected"`
	TotalCustomerDebt     decimal.Decimal  `json:"totalCustomerDebt"`
	OutstandingAdvance    decimal.Decimal  `json:"outstandingAdvance"`
	OutstandingCommission decimal.Decimal  `json:"outstandingCommission"`
	GrossProfit           decimal.Decimal  `json:"grossProfit"`
	InventoryValue        decimal.Decimal  `json:"inventoryValue"`
	CollectedThisMonth    decimal.Decimal  `json:"collectedThisMonth"`
	IntegrityWarnings     int              `json:"integrityWarnings"`
}
