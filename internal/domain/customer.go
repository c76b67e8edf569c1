package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrCustomerNationalIDEmpty = errors.New("national ID is required")
	ErrCustomerPhoneEmpty      = errors.New("phone is required")
	ErrCustomerNationalIDTaken = errors.New("a customer with this national ID already exists")
	ErrCustomerPhoneTaken      = errors.New("a customer with this phone already exists")
	ErrCustomerAddressTooLong  = errors.New("address must be 500 characters or less")
	ErrGuarantorNameEmpty      = errors.New("guarantor name is required when a guarantor is given")
	ErrChequeBankNameEmpty     = errors.New("bank name is required when cheque details are given")
	ErrChequeNumberEmpty       = errors.New("cheque number is required when cheque details are given")
)

// Guarantor is the optional second party on a sale
type Guarantor struct {
	Name       string `json:"name"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// ChequeDetails holds the security cheque taken at signing
type ChequeDetails struct {
	BankName     string `json:"bankName"`
	ChequeNumber string `json:"chequeNumber"`
}

type Customer struct {
	ID         int32          `json:"id"`
	Name       string         `json:"name"`
	NationalID string         `json:"nationalId"`
	Phone      string         `json:"phone"`
	Address    string         `json:"address"`
	Guarantor  *Guarantor     `json:"guarantor,omitempty"`
	Cheque     *ChequeDetails `json:"cheque,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Normalize trims the free-text fields in place
func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.NationalID = strings.TrimSpace(c.NationalID)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	if c.Guarantor != nil {
		c.Guarantor.Name = strings.TrimSpace(c.Guarantor.Name)
		c.Guarantor.NationalID = strings.TrimSpace(c.Guarantor.NationalID)
		c.Guarantor.Phone = strings.TrimSpace(c.Guarantor.Phone)
		c.Guarantor.Address = strings.TrimSpace(c.Guarantor.Address)
	}
	if c.Cheque != nil {
		c.Cheque.BankName = strings.TrimSpace(c.Cheque.BankName)
		c.Cheque.ChequeNumber = strings.TrimSpace(c.Cheque.ChequeNumber)
	}
}

// Validate checks the field-level rules. Uniqueness is checked by the service.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return Invalid("name", ErrNameRequired)
	}
	if len(c.Name) > MaxNameLength {
		return Invalid("name", ErrNameTooLong)
	}
	if c.NationalID == "" {
		return Invalid("nationalId", ErrCustomerNationalIDEmpty)
	}
	if c.Phone == "" {
		return Invalid("phone", ErrCustomerPhoneEmpty)
	}
	if len(c.Address) > MaxAddressLength {
		return Invalid("address", ErrCustomerAddressTooLong)
	}
	if c.Guarantor != nil && c.Guarantor.Name == "" {
		return Invalid("guarantor.name", ErrGuarantorNameEmpty)
	}
	if c.Cheque != nil {
		if c.Cheque.BankName == "" {
			return Invalid("cheque.bankName", ErrChequeBankNameEmpty)
		}
		if c.Cheque.ChequeNumber == "" {
			return Invalid("cheque.chequeNumber", ErrChequeNumberEmpty)
		}
	}
	return nil
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) (*Customer, error)
	GetByID(ctx context.Context, id int32) (*Customer, error)
	GetByNationalID(ctx context.Context, nationalID string) (*Customer, error)
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	GetAll(ctx context.Context) ([]*Customer, error)
	Search(ctx context.Context, query string) ([]*Customer, error)
	Update(ctx context.Context, customer *Customer) (*Customer, error)
}
