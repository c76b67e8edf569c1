package service

import (
	"sort"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/util"
	"github.com/shopspring/decimal"
)

// BuildDueReport lists, per plan, what is still owed for periods falling due in
// the given month or earlier. Completed plans owe nothing and are skipped.
// The result depends only on the plan and payment sets, not on their order.
func BuildDueReport(year, month int, plans []*domain.InstallmentPlan, payments []*domain.Payment, reconciler *Reconciler, allocation Allocation, today time.Time) domain.DueReport {
	today = util.DateOnly(today)
	_, monthEnd := util.MonthBounds(year, month)

	byPlan, warnings := GroupPaymentsByPlan(plans, payments)

	report := domain.DueReport{
		Year:        year,
		Month:       month,
		Groups:      []domain.DueGroup{},
		TotalDue:    decimal.Zero,
		OverdueDue:  decimal.Zero,
		Warnings:    warnings,
		GeneratedAt: today,
	}

	for _, plan := range plans {
		if plan == nil {
			continue
		}
		planPayments := byPlan[plan.ID]
		rec := reconciler.Reconcile(plan, planPayments, today)
		if rec.Status == domain.PlanStatusCompleted {
			continue
		}

		items := dueItems(plan, planPayments, rec, reconciler, allocation, monthEnd, today)
		if len(items) == 0 {
			continue
		}

		group := domain.DueGroup{
			PlanID:         plan.ID,
			CustomerID:     plan.CustomerID,
			Customer:       plan.Customer,
			Rikshaw:        plan.Rikshaw,
			Items:          items,
			TotalAmountDue: decimal.Zero,
			OverallStatus:  domain.DueStatusDue,
			EarliestDue:    items[0].DueDate,
		}
		for _, item := range items {
			group.TotalAmountDue = group.TotalAmountDue.Add(item.Amount)
			if item.Status == domain.DueStatusOverdue {
				group.OverallStatus = domain.DueStatusOverdue
				report.OverdueDue = report.OverdueDue.Add(item.Amount)
			}
			if item.DueDate.Before(group.EarliestDue) {
				group.EarliestDue = item.DueDate
			}
		}
		report.TotalDue = report.TotalDue.Add(group.TotalAmountDue)
		report.Groups = append(report.Groups, group)
	}

	sort.Slice(report.Groups, func(i, j int) bool {
		a, b := report.Groups[i], report.Groups[j]
		if !a.EarliestDue.Equal(b.EarliestDue) {
			return a.EarliestDue.Before(b.EarliestDue)
		}
		return a.PlanID < b.PlanID
	})
	return report
}

// dueItems emits the advance item first, then unpaid monthly periods in schedule order
func dueItems(plan *domain.InstallmentPlan, payments []*domain.Payment, rec domain.Reconciliation, reconciler *Reconciler, allocation Allocation, monthEnd, today time.Time) []domain.DueItem {
	var items []domain.DueItem

	if outstanding := rec.AdvanceOutstanding(); outstanding.IsPositive() {
		anchor := util.DateOnly(plan.AdvanceAnchorDate())
		if !anchor.After(monthEnd) {
			items = append(items, domain.DueItem{
				PlanID:  plan.ID,
				Kind:    domain.DueKindAdvance,
				DueDate: anchor,
				Amount:  outstanding,
				Status:  dueStatus(anchor, today),
			})
		}
	}

	for _, row := range reconciler.Schedule(plan, payments, rec, allocation, today) {
		if row.DueDate.After(monthEnd) {
			break
		}
		if row.Status == domain.ScheduleStatusPaid {
			continue
		}
		n := row.InstallmentNumber
		items = append(items, domain.DueItem{
			PlanID:            plan.ID,
			Kind:              domain.DueKindMonthly,
			InstallmentNumber: &n,
			DueDate:           row.DueDate,
			Amount:            row.Remaining(),
			Status:            dueStatus(row.DueDate, today),
		})
	}
	return items
}

func dueStatus(due, today time.Time) domain.DueStatus {
	if due.Before(today) {
		return domain.DueStatusOverdue
	}
	return domain.DueStatusDue
}
