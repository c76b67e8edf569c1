package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
)

// CustomerService handles customer business logic
type CustomerService struct {
	customerRepo domain.CustomerRepository
	planRepo     domain.PlanRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo domain.CustomerRepository, planRepo domain.PlanRepository) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		planRepo:     planRepo,
	}
}

// CustomerInput contains the editable fields of a customer
type CustomerInput struct {
	Name       string
	NationalID string
	Phone      string
	Address    string
	Guarantor  *domain.Guarantor
	Cheque     *domain.ChequeDetails
}

func (in CustomerInput) toDomain() *domain.Customer {
	c := &domain.Customer{
		Name:       in.Name,
		NationalID: in.NationalID,
		Phone:      in.Phone,
		Address:    in.Address,
		Guarantor:  in.Guarantor,
		Cheque:     in.Cheque,
	}
	c.Normalize()
	return c
}

// CreateCustomer validates the input, checks national ID and phone are unused, then inserts
func (s *CustomerService) CreateCustomer(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	customer := input.toDomain()
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, customer, 0); err != nil {
		return nil, err
	}
	return s.customerRepo.Create(ctx, customer)
}

// UpdateCustomer replaces a customer's details, keeping uniqueness against other customers
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int32, input CustomerInput) (*domain.Customer, error) {
	existing, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewLoadError("customer", err)
	}

	customer := input.toDomain()
	customer.ID = existing.ID
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, customer, existing.ID); err != nil {
		return nil, err
	}
	return s.customerRepo.Update(ctx, customer)
}

// checkUnique looks up national ID and phone before any write; selfID is skipped
func (s *CustomerService) checkUnique(ctx context.Context, customer *domain.Customer, selfID int32) error {
	found, err := s.customerRepo.GetByNationalID(ctx, customer.NationalID)
	if err != nil && !errors.Is(err, domain.ErrCustomerNotFound) {
		return domain.NewLoadError("customer by national ID", err)
	}
	if err == nil && found.ID != selfID {
		return domain.Invalid("nationalId", domain.ErrCustomerNationalIDTaken)
	}

	found, err = s.customerRepo.GetByPhone(ctx, customer.Phone)
	if err != nil && !errors.Is(err, domain.ErrCustomerNotFound) {
		return domain.NewLoadError("customer by phone", err)
	}
	if err == nil && found.ID != selfID {
		return domain.Invalid("phone", domain.ErrCustomerPhoneTaken)
	}
	return nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id int32) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewLoadError("customer", err)
	}
	return customer, nil
}

// ListCustomers returns all customers, or those matching query by name, phone or national ID
func (s *CustomerService) ListCustomers(ctx context.Context, query string) ([]*domain.Customer, error) {
	query = strings.TrimSpace(query)
	var (
		customers []*domain.Customer
		err       error
	)
	if query == "" {
		customers, err = s.customerRepo.GetAll(ctx)
	} else {
		customers, err = s.customerRepo.Search(ctx, query)
	}
	if err != nil {
		return nil, domain.NewLoadError("customers", err)
	}
	return customers, nil
}

// GetCustomerPlans returns the plans sold to a customer
func (s *CustomerService) GetCustomerPlans(ctx context.Context, id int32) ([]*domain.InstallmentPlan, error) {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	plans, err := s.planRepo.GetByCustomerID(ctx, id)
	if err != nil {
		return nil, domain.NewLoadError("plans by customer", err)
	}
	return plans, nil
}
