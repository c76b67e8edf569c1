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

const rikshawColumns = `id, manufacturer, model, type, engine_number, chassis_number, registration_number,
	availability, purchase_price, sale_price, photo_path, created_at, updated_at`

// RikshawRepository implements domain.RikshawRepository using PostgreSQL
type RikshawRepository struct {
	pool *pgxpool.Pool
}

// NewRikshawRepository creates a new RikshawRepository
func NewRikshawRepository(pool *pgxpool.Pool) *RikshawRepository {
	return &RikshawRepository{pool: pool}
}

// Create inserts a vehicle into inventory
func (r *RikshawRepository) Create(ctx context.Context, rikshaw *domain.Rikshaw) (*domain.Rikshaw, error) {
	purchasePrice, err := decimalToPgNumeric(rikshaw.PurchasePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase price: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO rikshaws (manufacturer, model, type, engine_number, chassis_number, registration_number,
			availability, purchase_price, photo_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+rikshawColumns,
		rikshaw.Manufacturer, rikshaw.Model, rikshaw.Type, rikshaw.EngineNumber, rikshaw.ChassisNumber,
		ptrToText(rikshaw.RegistrationNumber), string(rikshaw.Availability), purchasePrice, ptrToText(rikshaw.PhotoPath),
	)
	created, err := scanRikshaw(row)
	if err != nil {
		return nil, mapRikshawUnique(err)
	}
	return created, nil
}

// GetByID retrieves a vehicle by ID
func (r *RikshawRepository) GetByID(ctx context.Context, id int32) (*domain.Rikshaw, error) {
	return r.getOne(ctx, `SELECT `+rikshawColumns+` FROM rikshaws WHERE id = $1`, id)
}

// GetByEngineNumber looks a vehicle up by engine number
func (r *RikshawRepository) GetByEngineNumber(ctx context.Context, engineNumber string) (*domain.Rikshaw, error) {
	return r.getOne(ctx, `SELECT `+rikshawColumns+` FROM rikshaws WHERE engine_number = $1`, engineNumber)
}

// GetByChassisNumber looks a vehicle up by chassis number
func (r *RikshawRepository) GetByChassisNumber(ctx context.Context, chassisNumber string) (*domain.Rikshaw, error) {
	return r.getOne(ctx, `SELECT `+rikshawColumns+` FROM rikshaws WHERE chassis_number = $1`, chassisNumber)
}

// GetByRegistrationNumber looks a vehicle up by registration number
func (r *RikshawRepository) GetByRegistrationNumber(ctx context.Context, registrationNumber string) (*domain.Rikshaw, error) {
	return r.getOne(ctx, `SELECT `+rikshawColumns+` FROM rikshaws WHERE registration_number = $1`, registrationNumber)
}

func (r *RikshawRepository) getOne(ctx context.Context, sql string, arg interface{}) (*domain.Rikshaw, error) {
	rikshaw, err := scanRikshaw(r.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRikshawNotFound
		}
		return nil, err
	}
	return rikshaw, nil
}

// GetAll lists vehicles, optionally filtered by availability
func (r *RikshawRepository) GetAll(ctx context.Context, availability *domain.Availability) ([]*domain.Rikshaw, error) {
	var filter pgtype.Text
	if availability != nil {
		filter = pgtype.Text{String: string(*availability), Valid: true}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+rikshawColumns+`
		FROM rikshaws
		WHERE $1::text IS NULL OR availability = $1
		ORDER BY created_at DESC, id DESC`,
		filter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Rikshaw, 0)
	for rows.Next() {
		rikshaw, err := scanRikshaw(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rikshaw)
	}
	return result, rows.Err()
}

// Update replaces the descriptive fields. Identity numbers, availability and
// sale price are owned by the sale workflow and are not written here.
func (r *RikshawRepository) Update(ctx context.Context, rikshaw *domain.Rikshaw) (*domain.Rikshaw, error) {
	purchasePrice, err := decimalToPgNumeric(rikshaw.PurchasePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase price: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE rikshaws
		SET manufacturer = $2, model = $3, type = $4, registration_number = $5, purchase_price = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+rikshawColumns,
		rikshaw.ID, rikshaw.Manufacturer, rikshaw.Model, rikshaw.Type, ptrToText(rikshaw.RegistrationNumber), purchasePrice,
	)
	updated, err := scanRikshaw(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRikshawNotFound
		}
		return nil, mapRikshawUnique(err)
	}
	return updated, nil
}

// UpdatePhoto sets or clears the stored photo path
func (r *RikshawRepository) UpdatePhoto(ctx context.Context, id int32, photoPath *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rikshaws SET photo_path = $2, updated_at = NOW() WHERE id = $1`,
		id, ptrToText(photoPath),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRikshawNotFound
	}
	return nil
}

// Delete removes an unsold vehicle. Sold vehicles are referenced by a plan and stay.
func (r *RikshawRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rikshaws WHERE id = $1 AND availability = $2`, id, string(domain.AvailabilityUnsold))
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsSold() {
		return domain.ErrRikshawAlreadySold
	}
	return domain.ErrRikshawNotFound
}

func scanRikshaw(row pgx.Row) (*domain.Rikshaw, error) {
	var (
		rk            domain.Rikshaw
		registration  pgtype.Text
		availability  string
		purchasePrice pgtype.Numeric
		salePrice     pgtype.Numeric
		photoPath     pgtype.Text
	)
	err := row.Scan(
		&rk.ID, &rk.Manufacturer, &rk.Model, &rk.Type, &rk.EngineNumber, &rk.ChassisNumber, &registration,
		&availability, &purchasePrice, &salePrice, &photoPath, &rk.CreatedAt, &rk.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rk.RegistrationNumber = textToPtr(registration)
	rk.Availability = domain.Availability(availability)
	rk.PurchasePrice = pgNumericToDecimal(purchasePrice)
	rk.SalePrice = pgNumericToDecimalPtr(salePrice)
	rk.PhotoPath = textToPtr(photoPath)
	return &rk, nil
}

// mapRikshawUnique turns a unique violation into the matching domain error
func mapRikshawUnique(err error) error {
	if !isPgUniqueViolation(err) {
		return err
	}
	switch uniqueConstraint(err) {
	case "rikshaws_engine_number_key":
		return domain.ErrRikshawEngineNumberTaken
	case "rikshaws_chassis_number_key":
		return domain.ErrRikshawChassisNumberTaken
	case "rikshaws_registration_number_key":
		return domain.ErrRikshawRegistrationTaken
	}
	return domain.ErrAlreadyExists
}
