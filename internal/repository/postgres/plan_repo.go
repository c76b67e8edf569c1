package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
)

const planColumns = `id, customer_id, rikshaw_id, total_price, advance_payments, monthly_installment,
	duration_months, agreement_date, showroom_commission, is_commission_paid, total_paid_monthly,
	customer_snapshot, rikshaw_snapshot, created_at, updated_at`

// PlanRepository implements domain.PlanRepository using PostgreSQL
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// CreateWithSale inserts the plan, freezes the customer and vehicle details
// onto it and marks the vehicle sold at the plan's total price. The vehicle
// row is locked so two sales of the same vehicle cannot both commit.
func (r *PlanRepository) CreateWithSale(ctx context.Context, plan *domain.InstallmentPlan) (*domain.InstallmentPlan, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// 1. Lock the vehicle and check it is still for sale
	var (
		availability string
		vehicle      domain.RikshawSnapshot
		registration pgtype.Text
	)
	err = tx.QueryRow(ctx, `
		SELECT availability, manufacturer, model, engine_number, chassis_number, registration_number
		FROM rikshaws WHERE id = $1
		FOR UPDATE`,
		plan.RikshawID,
	).Scan(&availability, &vehicle.Manufacturer, &vehicle.Model, &vehicle.EngineNumber, &vehicle.ChassisNumber, &registration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRikshawNotFound
		}
		return nil, err
	}
	if domain.Availability(availability) == domain.AvailabilitySold {
		return nil, domain.ErrRikshawAlreadySold
	}
	if registration.Valid {
		vehicle.RegistrationNumber = registration.String
	}

	// 2. Snapshot the customer
	var customer domain.CustomerSnapshot
	err = tx.QueryRow(ctx,
		`SELECT name, national_id, phone, address FROM customers WHERE id = $1`,
		plan.CustomerID,
	).Scan(&customer.Name, &customer.NationalID, &customer.Phone, &customer.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	// 3. Insert the plan
	args, err := planTermArgs(domain.PlanTerms{
		TotalPrice:         plan.TotalPrice,
		AdvancePayments:    plan.AdvancePayments,
		MonthlyInstallment: plan.MonthlyInstallment,
		DurationMonths:     plan.DurationMonths,
		ShowroomCommission: plan.ShowroomCommission,
	})
	if err != nil {
		return nil, err
	}
	customerSnapshot, err := marshalJSONB(customer)
	if err != nil {
		return nil, fmt.Errorf("encode customer snapshot: %w", err)
	}
	rikshawSnapshot, err := marshalJSONB(vehicle)
	if err != nil {
		return nil, fmt.Errorf("encode rikshaw snapshot: %w", err)
	}

	created, err := scanPlan(tx.QueryRow(ctx, `
		INSERT INTO installment_plans (customer_id, rikshaw_id, total_price, advance_payments, monthly_installment,
			duration_months, showroom_commission, agreement_date, customer_snapshot, rikshaw_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+planColumns,
		plan.CustomerID, plan.RikshawID, args.totalPrice, args.advances, args.monthly,
		args.duration, args.commission, dateToPg(plan.AgreementDate), customerSnapshot, rikshawSnapshot,
	))
	if err != nil {
		return nil, err
	}

	// 4. Flip the vehicle to sold
	if _, err := tx.Exec(ctx,
		`UPDATE rikshaws SET availability = $2, sale_price = $3, updated_at = NOW() WHERE id = $1`,
		plan.RikshawID, string(domain.AvailabilitySold), args.totalPrice,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id int32) (*domain.InstallmentPlan, error) {
	plan, err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM installment_plans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// GetAll returns every plan ordered by ID
func (r *PlanRepository) GetAll(ctx context.Context) ([]*domain.InstallmentPlan, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+planColumns+` FROM installment_plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectPlans(rows)
}

// GetByCustomerID returns a customer's plans ordered by ID
func (r *PlanRepository) GetByCustomerID(ctx context.Context, customerID int32) ([]*domain.InstallmentPlan, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+planColumns+` FROM installment_plans WHERE customer_id = $1 ORDER BY id`, customerID)
	if err != nil {
		return nil, err
	}
	return collectPlans(rows)
}

// UpdateTerms replaces the financial terms and keeps the vehicle's recorded
// sale price equal to the corrected total
func (r *PlanRepository) UpdateTerms(ctx context.Context, id int32, terms domain.PlanTerms) (*domain.InstallmentPlan, error) {
	args, err := planTermArgs(terms)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	updated, err := scanPlan(tx.QueryRow(ctx, `
		UPDATE installment_plans
		SET total_price = $2, advance_payments = $3, monthly_installment = $4, duration_months = $5,
			showroom_commission = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+planColumns,
		id, args.totalPrice, args.advances, args.monthly, args.duration, args.commission,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE rikshaws SET sale_price = $2, updated_at = NOW() WHERE id = $1`,
		updated.RikshawID, args.totalPrice,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

type planArgs struct {
	totalPrice pgtype.Numeric
	advances   []byte
	monthly    pgtype.Numeric
	duration   int32
	commission pgtype.Numeric
}

func planTermArgs(terms domain.PlanTerms) (planArgs, error) {
	var (
		args planArgs
		err  error
	)
	if args.totalPrice, err = decimalToPgNumeric(terms.TotalPrice); err != nil {
		return args, fmt.Errorf("invalid total price: %w", err)
	}
	if args.monthly, err = decimalToPgNumeric(terms.MonthlyInstallment); err != nil {
		return args, fmt.Errorf("invalid monthly installment: %w", err)
	}
	if args.commission, err = decimalToPgNumeric(terms.ShowroomCommission); err != nil {
		return args, fmt.Errorf("invalid showroom commission: %w", err)
	}
	advances := terms.AdvancePayments
	if advances == nil {
		advances = []domain.AdvancePayment{}
	}
	if args.advances, err = marshalJSONB(advances); err != nil {
		return args, fmt.Errorf("encode advance payments: %w", err)
	}
	args.duration = terms.DurationMonths
	return args, nil
}

func scanPlan(row pgx.Row) (*domain.InstallmentPlan, error) {
	var (
		p                                     domain.InstallmentPlan
		totalPrice, monthly, commission, paid pgtype.Numeric
		advances, customer, rikshaw           []byte
		agreementDate                         pgtype.Date
	)
	err := row.Scan(
		&p.ID, &p.CustomerID, &p.RikshawID, &totalPrice, &advances, &monthly,
		&p.DurationMonths, &agreementDate, &commission, &p.IsCommissionPaid, &paid,
		&customer, &rikshaw, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.TotalPrice = pgNumericToDecimal(totalPrice)
	p.MonthlyInstallment = pgNumericToDecimal(monthly)
	p.ShowroomCommission = pgNumericToDecimal(commission)
	p.TotalPaidMonthly = pgNumericToDecimal(paid)
	p.AgreementDate = pgDateToTime(agreementDate)

	p.AdvancePayments = []domain.AdvancePayment{}
	if err := unmarshalJSONB(advances, &p.AdvancePayments); err != nil {
		return nil, fmt.Errorf("decode advance payments for plan %d: %w", p.ID, err)
	}
	if err := unmarshalJSONB(customer, &p.Customer); err != nil {
		return nil, fmt.Errorf("decode customer snapshot for plan %d: %w", p.ID, err)
	}
	if err := unmarshalJSONB(rikshaw, &p.Rikshaw); err != nil {
		return nil, fmt.Errorf("decode rikshaw snapshot for plan %d: %w", p.ID, err)
	}
	return &p, nil
}

func collectPlans(rows pgx.Rows) ([]*domain.InstallmentPlan, error) {
	defer rows.Close()
	result := make([]*domain.InstallmentPlan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, plan)
	}
	return result, rows.Err()
}
