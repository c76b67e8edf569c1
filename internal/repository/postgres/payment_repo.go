package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
)

const paymentColumns = `id, plan_id, amount_paid, payment_date, received_by, payment_type,
	installment_number, notes, created_at, updated_at`

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a payment and refreshes the plan's hint columns in the same transaction
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	amount, err := decimalToPgNumeric(payment.AmountPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := lockPlan(ctx, tx, payment.PlanID); err != nil {
		return nil, err
	}

	created, err := scanPayment(tx.QueryRow(ctx, `
		INSERT INTO payments (plan_id, amount_paid, payment_date, received_by, payment_type, installment_number, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+paymentColumns,
		payment.PlanID, amount, dateToPg(payment.PaymentDate), payment.ReceivedBy, string(payment.PaymentType),
		ptrToInt4(payment.InstallmentNumber), ptrToText(payment.Notes),
	))
	if err != nil {
		return nil, err
	}

	if err := refreshPlanHints(ctx, tx, created.PlanID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	payment, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetAll returns every payment ordered by ID
func (r *PaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// GetByPlanID returns a plan's payments in date order
func (r *PaymentRepository) GetByPlanID(ctx context.Context, planID int32) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE plan_id = $1 ORDER BY payment_date, id`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// GetByDateRange returns payments dated within [start, end]
func (r *PaymentRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE payment_date >= $1 AND payment_date <= $2
		ORDER BY payment_date, id`,
		dateToPg(start), dateToPg(end),
	)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// Update replaces a payment's fields. The plan link is never changed.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	amount, err := decimalToPgNumeric(payment.AmountPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	updated, err := scanPayment(tx.QueryRow(ctx, `
		UPDATE payments
		SET amount_paid = $2, payment_date = $3, received_by = $4, payment_type = $5,
			installment_number = $6, notes = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+paymentColumns,
		payment.ID, amount, dateToPg(payment.PaymentDate), payment.ReceivedBy, string(payment.PaymentType),
		ptrToInt4(payment.InstallmentNumber), ptrToText(payment.Notes),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	if err := refreshPlanHints(ctx, tx, updated.PlanID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// Delete removes a payment and refreshes its plan's hint columns
func (r *PaymentRepository) Delete(ctx context.Context, id int32) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var planID int32
	if err := tx.QueryRow(ctx, `DELETE FROM payments WHERE id = $1 RETURNING plan_id`, id).Scan(&planID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPaymentNotFound
		}
		return err
	}

	if err := refreshPlanHints(ctx, tx, planID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockPlan serialises payment writes per plan so the hint refresh sees every row
func lockPlan(ctx context.Context, db DBTX, planID int32) error {
	var id int32
	err := db.QueryRow(ctx, `SELECT id FROM installment_plans WHERE id = $1 FOR UPDATE`, planID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPlanNotFound
	}
	return err
}

// refreshPlanHints recomputes the running monthly total and the commission flag.
// Both are display hints; reconciliation always works from the payment rows.
func refreshPlanHints(ctx context.Context, db DBTX, planID int32) error {
	_, err := db.Exec(ctx, `
		UPDATE installment_plans
		SET total_paid_monthly = COALESCE((
				SELECT SUM(amount_paid) FROM payments WHERE plan_id = $1 AND payment_type = $2
			), 0),
			is_commission_paid = EXISTS (
				SELECT 1 FROM payments WHERE plan_id = $1 AND payment_type = $3
			),
			updated_at = NOW()
		WHERE id = $1`,
		planID, string(domain.PaymentTypeMonthly), string(domain.PaymentTypeCommission),
	)
	if err != nil {
		return fmt.Errorf("refresh plan %d hints: %w", planID, err)
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p           domain.Payment
		amount      pgtype.Numeric
		paymentDate pgtype.Date
		paymentType string
		installment pgtype.Int4
		notes       pgtype.Text
	)
	err := row.Scan(
		&p.ID, &p.PlanID, &amount, &paymentDate, &p.ReceivedBy, &paymentType,
		&installment, &notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.AmountPaid = pgNumericToDecimal(amount)
	p.PaymentDate = pgDateToTime(paymentDate)
	p.PaymentType = domain.PaymentType(paymentType)
	p.InstallmentNumber = int4ToPtr(installment)
	p.Notes = textToPtr(notes)
	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	defer rows.Close()
	result := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}
