package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
)

const customerColumns = `id, name, national_id, phone, address, guarantor, cheque, created_at, updated_at`

// CustomerRepository implements domain.CustomerRepository using PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts a customer
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	guarantor, cheque, err := customerExtras(customer)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, national_id, phone, address, guarantor, cheque)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+customerColumns,
		customer.Name, customer.NationalID, customer.Phone, customer.Address, guarantor, cheque,
	)
	return scanCustomer(row)
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int32) (*domain.Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// GetByNationalID looks a customer up by national ID
func (r *CustomerRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE national_id = $1 LIMIT 1`, nationalID)
}

// GetByPhone looks a customer up by phone
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1 LIMIT 1`, phone)
}

func (r *CustomerRepository) getOne(ctx context.Context, sql string, arg interface{}) (*domain.Customer, error) {
	customer, err := scanCustomer(r.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// GetAll lists every customer by name
func (r *CustomerRepository) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

// Search matches name, phone or national ID, case-insensitively
func (r *CustomerRepository) Search(ctx context.Context, query string) ([]*domain.Customer, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE name ILIKE $1 OR phone ILIKE $1 OR national_id ILIKE $1
		ORDER BY name, id`,
		pattern,
	)
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

// Update replaces a customer's editable fields
func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	guarantor, cheque, err := customerExtras(customer)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, national_id = $3, phone = $4, address = $5, guarantor = $6, cheque = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+customerColumns,
		customer.ID, customer.Name, customer.NationalID, customer.Phone, customer.Address, guarantor, cheque,
	)
	updated, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return updated, nil
}

func customerExtras(c *domain.Customer) (guarantor, cheque []byte, err error) {
	if c.Guarantor != nil {
		if guarantor, err = marshalJSONB(c.Guarantor); err != nil {
			return nil, nil, fmt.Errorf("encode guarantor: %w", err)
		}
	}
	if c.Cheque != nil {
		if cheque, err = marshalJSONB(c.Cheque); err != nil {
			return nil, nil, fmt.Errorf("encode cheque: %w", err)
		}
	}
	return guarantor, cheque, nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		c                 domain.Customer
		guarantor, cheque []byte
		createdAt         time.Time
		updatedAt         time.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.NationalID, &c.Phone, &c.Address, &guarantor, &cheque, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if len(guarantor) > 0 {
		c.Guarantor = &domain.Guarantor{}
		if err := unmarshalJSONB(guarantor, c.Guarantor); err != nil {
			return nil, fmt.Errorf("decode guarantor for customer %d: %w", c.ID, err)
		}
	}
	if len(cheque) > 0 {
		c.Cheque = &domain.ChequeDetails{}
		if err := unmarshalJSONB(cheque, c.Cheque); err != nil {
			return nil, fmt.Errorf("decode cheque for customer %d: %w", c.ID, err)
		}
	}
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]*domain.Customer, error) {
	defer rows.Close()
	result := make([]*domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
