package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/repository/storage"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrReceiptStorageNotConfigured = errors.New("receipt storage not configured")

// ReceiptData is everything printed on a payment receipt
type ReceiptData struct {
	BusinessName string
	Payment      *domain.Payment
	Plan         *domain.InstallmentPlan
	// Reconciliation counts the plan's payments up to and including this one
	Reconciliation domain.Reconciliation
	GeneratedAt    time.Time
}

// ReceiptArchive is a stored receipt and a temporary link to it
type ReceiptArchive struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ReceiptService renders payment receipts and archives them in object storage
type ReceiptService struct {
	paymentRepo  domain.PaymentRepository
	planRepo     domain.PlanRepository
	reconciler   *Reconciler
	store        storage.ObjectStore
	businessName string
	urlExpiry    time.Duration
	now          func() time.Time
}

// NewReceiptService creates a new ReceiptService. store may be nil, which disables archiving.
func NewReceiptService(paymentRepo domain.PaymentRepository, planRepo domain.PlanRepository, reconciler *Reconciler, store storage.ObjectStore, businessName string, urlExpiry time.Duration) *ReceiptService {
	return &ReceiptService{
		paymentRepo:  paymentRepo,
		planRepo:     planRepo,
		reconciler:   reconciler,
		store:        store,
		businessName: businessName,
		urlExpiry:    urlExpiry,
		now:          time.Now,
	}
}

// BuildReceiptData loads the payment and its plan and reconciles the plan as it
// stood right after the payment
func (s *ReceiptService) BuildReceiptData(ctx context.Context, paymentID int32) (*ReceiptData, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, domain.NewLoadError("payment", err)
	}
	plan, payments, err := loadPlanWithPayments(ctx, s.planRepo, s.paymentRepo, payment.PlanID)
	if err != nil {
		return nil, err
	}

	return &ReceiptData{
		BusinessName:   s.businessName,
		Payment:        payment,
		Plan:           plan,
		Reconciliation: s.reconciler.Reconcile(plan, paymentsThrough(payments, payment), payment.PaymentDate),
		GeneratedAt:    s.now(),
	}, nil
}

// paymentsThrough keeps the payments ordered at or before target by (date, ID)
func paymentsThrough(payments []*domain.Payment, target *domain.Payment) []*domain.Payment {
	sorted := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if p != nil {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].PaymentDate.Equal(sorted[j].PaymentDate) {
			return sorted[i].PaymentDate.Before(sorted[j].PaymentDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	for i, p := range sorted {
		if p.ID == target.ID {
			return sorted[:i+1]
		}
	}
	return append(sorted, target)
}

// GenerateReceipt renders the receipt of one payment as a PDF
func (s *ReceiptService) GenerateReceipt(ctx context.Context, paymentID int32) ([]byte, error) {
	data, err := s.BuildReceiptData(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return RenderReceiptPDF(data)
}

// ArchiveReceipt renders the receipt, stores it and returns a presigned link.
// Archiving the same payment again replaces the stored copy.
func (s *ReceiptService) ArchiveReceipt(ctx context.Context, paymentID int32) (*ReceiptArchive, error) {
	if s.store == nil {
		return nil, ErrReceiptStorageNotConfigured
	}
	data, err := s.BuildReceiptData(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	pdf, err := RenderReceiptPDF(data)
	if err != nil {
		return nil, err
	}

	path := ReceiptPath(data.Payment)
	if _, err := s.store.Upload(ctx, path, bytes.NewReader(pdf), "application/pdf", int64(len(pdf))); err != nil {
		return nil, fmt.Errorf("failed to archive receipt: %w", err)
	}
	url, err := s.store.GeneratePresignedURL(ctx, path, s.urlExpiry)
	if err != nil {
		return nil, err
	}

	log.Info().Int32("payment_id", paymentID).Str("path", path).Msg("Receipt archived")
	return &ReceiptArchive{Path: path, URL: url, ExpiresAt: s.now().Add(s.urlExpiry)}, nil
}

// ReceiptPath is the storage key of a payment's receipt
func ReceiptPath(payment *domain.Payment) string {
	return fmt.Sprintf("receipts/plan-%d/payment-%d.pdf", payment.PlanID, payment.ID)
}

// ReceiptNumber is the printed receipt reference
func ReceiptNumber(payment *domain.Payment) string {
	return fmt.Sprintf("RM-%05d-%06d", payment.PlanID, payment.ID)
}

func rupees(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}

// RenderReceiptPDF lays out an A4 receipt
func RenderReceiptPDF(data *ReceiptData) ([]byte, error) {
	payment, plan, rec := data.Payment, data.Plan, data.Reconciliation

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(fmt.Sprintf("Receipt %s", ReceiptNumber(payment)), false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, data.BusinessName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Receipt No: %s", ReceiptNumber(payment)), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Printed: %s", data.GeneratedAt.Format("02-Jan-2006 03:04 PM")), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	// Customer and vehicle as recorded at sale
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer & Vehicle", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", plan.Customer.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", plan.Customer.Phone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("National ID: %s", plan.Customer.NationalID), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Plan No: %d", plan.ID), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Vehicle: %s %s", plan.Rikshaw.Manufacturer, plan.Rikshaw.Model), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Registration: %s", plan.Rikshaw.RegistrationNumber), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Engine: %s", plan.Rikshaw.EngineNumber), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Chassis: %s", plan.Rikshaw.ChassisNumber), "RB", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Payment
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(40, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Installment", "1", 0, "C", true, 0, "")
	pdf.CellFormat(70, 7, "Amount", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(40, 6, payment.PaymentDate.Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, payment.PaymentType.Label(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, payment.InstallmentLabel(plan.DurationMonths), "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, rupees(payment.AmountPaid), "1", 1, "R", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Received by: %s", payment.ReceivedBy), "1", 1, "L", false, 0, "")
	if payment.Notes != nil {
		pdf.MultiCell(190, 6, fmt.Sprintf("Notes: %s", *payment.Notes), "1", "L", false)
	}
	pdf.Ln(4)

	// Account position after this payment
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Account Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	rows := [][2]string{
		{"Total Price", rupees(plan.TotalPrice)},
		{"Advance Collected", fmt.Sprintf("%s of %s", rupees(rec.CollectedAdvance), rupees(rec.TotalAgreedAdvance))},
		{"Monthly Installments Paid", rupees(rec.TotalMonthlyPaid)},
		{"Discounts", rupees(rec.TotalDiscountApplied)},
		{"Customer Balance", rupees(rec.CustomerDebt)},
		{"Remaining Balance", rupees(rec.RemainingBalance)},
	}
	for _, row := range rows {
		pdf.CellFormat(95, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(95, 7, row[1], "1", 1, "R", false, 0, "")
	}

	if rec.Status == domain.PlanStatusCompleted {
		pdf.SetFillColor(200, 255, 200)
	} else {
		pdf.SetFillColor(255, 235, 200)
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 10, fmt.Sprintf("Status: %s", rec.Status), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
