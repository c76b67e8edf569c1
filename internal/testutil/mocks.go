package testutil

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rikshawmart/rikshawmart-backend/internal/domain"
	"github.com/rikshawmart/rikshawmart-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockCustomerRepository is a mock implementation of domain.CustomerRepository
type MockCustomerRepository struct {
	Customers map[int32]*domain.Customer
	NextID    int32
	// GetAllErr, when set, is returned by GetAll and Search
	GetAllErr error
	// CreateCalls counts successful Create calls
	CreateCalls int
}

// NewMockCustomerRepository creates a new MockCustomerRepository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		Customers: make(map[int32]*domain.Customer),
		NextID:    1,
	}
}

// Create stores a new customer
func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	customer.ID = m.NextID
	m.NextID++
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	m.Customers[customer.ID] = customer
	m.CreateCalls++
	return customer, nil
}

// GetByID retrieves a customer by ID
func (m *MockCustomerRepository) GetByID(ctx context.Context, id int32) (*domain.Customer, error) {
	if c, ok := m.Customers[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCustomerNotFound
}

// GetByNationalID retrieves a customer by national ID
func (m *MockCustomerRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Customer, error) {
	for _, c := range m.Customers {
		if c.NationalID == nationalID {
			return c, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

// GetByPhone retrieves a customer by phone
func (m *MockCustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	for _, c := range m.Customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

// GetAll returns every customer ordered by ID
func (m *MockCustomerRepository) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}
	result := make([]*domain.Customer, 0, len(m.Customers))
	for _, c := range m.Customers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Search matches name, phone or national ID case-insensitively
func (m *MockCustomerRepository) Search(ctx context.Context, query string) ([]*domain.Customer, error) {
	all, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	result := make([]*domain.Customer, 0)
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, q) || strings.Contains(strings.ToLower(c.NationalID), q) {
			result = append(result, c)
		}
	}
	return result, nil
}

// Update replaces an existing customer
func (m *MockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	existing, ok := m.Customers[customer.ID]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	customer.CreatedAt = existing.CreatedAt
	customer.UpdatedAt = time.Now()
	m.Customers[customer.ID] = customer
	return customer, nil
}

// AddCustomer adds a customer to the mock repository (helper for tests)
func (m *MockCustomerRepository) AddCustomer(customer *domain.Customer) {
	m.Customers[customer.ID] = customer
	if customer.ID >= m.NextID {
		m.NextID = customer.ID + 1
	}
}

// MockRikshawRepository is a mock implementation of domain.RikshawRepository
type MockRikshawRepository struct {
	Rikshaws  map[int32]*domain.Rikshaw
	NextID    int32
	GetAllErr error
}

// NewMockRikshawRepository creates a new MockRikshawRepository
func NewMockRikshawRepository() *MockRikshawRepository {
	return &MockRikshawRepository{
		Rikshaws: make(map[int32]*domain.Rikshaw),
		NextID:   1,
	}
}

// Create stores a new rikshaw
func (m *MockRikshawRepository) Create(ctx context.Context, rikshaw *domain.Rikshaw) (*domain.Rikshaw, error) {
	rikshaw.ID = m.NextID
	m.NextID++
	rikshaw.CreatedAt = time.Now()
	rikshaw.UpdatedAt = rikshaw.CreatedAt
	m.Rikshaws[rikshaw.ID] = rikshaw
	return rikshaw, nil
}

// GetByID retrieves a rikshaw by ID
func (m *MockRikshawRepository) GetByID(ctx context.Context, id int32) (*domain.Rikshaw, error) {
	if r, ok := m.Rikshaws[id]; ok {
		return r, nil
	}
	return nil, domain.ErrRikshawNotFound
}

// GetByEngineNumber retrieves a rikshaw by engine number
func (m *MockRikshawRepository) GetByEngineNumber(ctx context.Context, engineNumber string) (*domain.Rikshaw, error) {
	for _, r := range m.Rikshaws {
		if r.EngineNumber == engineNumber {
			return r, nil
		}
	}
	return nil, domain.ErrRikshawNotFound
}

// GetByChassisNumber retrieves a rikshaw by chassis number
func (m *MockRikshawRepository) GetByChassisNumber(ctx context.Context, chassisNumber string) (*domain.Rikshaw, error) {
	for _, r := range m.Rikshaws {
		if r.ChassisNumber == chassisNumber {
			return r, nil
		}
	}
	return nil, domain.ErrRikshawNotFound
}

// GetByRegistrationNumber retrieves a rikshaw by registration number
func (m *MockRikshawRepository) GetByRegistrationNumber(ctx context.Context, registrationNumber string) (*domain.Rikshaw, error) {
	for _, r := range m.Rikshaws {
		if r.RegistrationNumber != nil && *r.RegistrationNumber == registrationNumber {
			return r, nil
		}
	}
	return nil, domain.ErrRikshawNotFound
}

// GetAll returns rikshaws ordered by ID, optionally filtered by availability
func (m *MockRikshawRepository) GetAll(ctx context.Context, availability *domain.Availability) ([]*domain.Rikshaw, error) {
	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}
	result := make([]*domain.Rikshaw, 0, len(m.Rikshaws))
	for _, r := range m.Rikshaws {
		if availability != nil && r.Availability != *availability {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update replaces an existing rikshaw
func (m *MockRikshawRepository) Update(ctx context.Context, rikshaw *domain.Rikshaw) (*domain.Rikshaw, error) {
	existing, ok := m.Rikshaws[rikshaw.ID]
	if !ok {
		return nil, domain.ErrRikshawNotFound
	}
	rikshaw.CreatedAt = existing.CreatedAt
	rikshaw.UpdatedAt = time.Now()
	m.Rikshaws[rikshaw.ID] = rikshaw
	return rikshaw, nil
}

// UpdatePhoto sets or clears the photo path
func (m *MockRikshawRepository) UpdatePhoto(ctx context.Context, id int32, photoPath *string) error {
	r, ok := m.Rikshaws[id]
	if !ok {
		return domain.ErrRikshawNotFound
	}
	r.PhotoPath = photoPath
	return nil
}

// Delete removes a rikshaw
func (m *MockRikshawRepository) Delete(ctx context.Context, id int32) error {
	if _, ok := m.Rikshaws[id]; !ok {
		return domain.ErrRikshawNotFound
	}
	delete(m.Rikshaws, id)
	return nil
}

// AddRikshaw adds a rikshaw to the mock repository (helper for tests)
func (m *MockRikshawRepository) AddRikshaw(rikshaw *domain.Rikshaw) {
	m.Rikshaws[rikshaw.ID] = rikshaw
	if rikshaw.ID >= m.NextID {
		m.NextID = rikshaw.ID + 1
	}
}

// MockPlanRepository is a mock implementation of domain.PlanRepository.
// When Rikshaws is set, CreateWithSale flips the vehicle to sold like the real store.
type MockPlanRepository struct {
	Plans     map[int32]*domain.InstallmentPlan
	NextID    int32
	Rikshaws  *MockRikshawRepository
	Customers *MockCustomerRepository
	GetAllErr error
	// CreateCalls counts CreateWithSale calls that reached the store
	CreateCalls int
}

// NewMockPlanRepository creates a new MockPlanRepository
func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		Plans:  make(map[int32]*domain.InstallmentPlan),
		NextID: 1,
	}
}

// CreateWithSale stores the plan, snapshots its parties and marks the vehicle sold
func (m *MockPlanRepository) CreateWithSale(ctx context.Context, plan *domain.InstallmentPlan) (*domain.InstallmentPlan, error) {
	m.CreateCalls++
	if m.Rikshaws != nil {
		r, ok := m.Rikshaws.Rikshaws[plan.RikshawID]
		if !ok {
			return nil, domain.ErrRikshawNotFound
		}
		if r.IsSold() {
			return nil, domain.ErrRikshawAlreadySold
		}
		price := plan.TotalPrice
		r.Availability = domain.AvailabilitySold
		r.SalePrice = &price
		plan.Rikshaw = domain.RikshawSnapshot{
			Manufacturer:  r.Manufacturer,
			Model:         r.Model,
			EngineNumber:  r.EngineNumber,
			ChassisNumber: r.ChassisNumber,
		}
		if r.RegistrationNumber != nil {
			plan.Rikshaw.RegistrationNumber = *r.RegistrationNumber
		}
	}
	if m.Customers != nil {
		if c, ok := m.Customers.Customers[plan.CustomerID]; ok {
			plan.Customer = domain.CustomerSnapshot{Name: c.Name, NationalID: c.NationalID, Phone: c.Phone, Address: c.Address}
		}
	}
	plan.ID = m.NextID
	m.NextID++
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	m.Plans[plan.ID] = plan
	return plan, nil
}

// GetByID retrieves a plan by ID
func (m *MockPlanRepository) GetByID(ctx context.Context, id int32) (*domain.InstallmentPlan, error) {
	if p, ok := m.Plans[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPlanNotFound
}

// GetAll returns every plan ordered by ID
func (m *MockPlanRepository) GetAll(ctx context.Context) ([]*domain.InstallmentPlan, error) {
	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}
	result := make([]*domain.InstallmentPlan, 0, len(m.Plans))
	for _, p := range m.Plans {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetByCustomerID returns the plans of one customer
func (m *MockPlanRepository) GetByCustomerID(ctx context.Context, customerID int32) ([]*domain.InstallmentPlan, error) {
	all, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.InstallmentPlan, 0)
	for _, p := range all {
		if p.CustomerID == customerID {
			result = append(result, p)
		}
	}
	return result, nil
}

// UpdateTerms applies a terms correction
func (m *MockPlanRepository) UpdateTerms(ctx context.Context, id int32, terms domain.PlanTerms) (*domain.InstallmentPlan, error) {
	p, ok := m.Plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	p.TotalPrice = terms.TotalPrice
	p.AdvancePayments = terms.AdvancePayments
	p.MonthlyInstallment = terms.MonthlyInstallment
	p.DurationMonths = terms.DurationMonths
	p.ShowroomCommission = terms.ShowroomCommission
	p.UpdatedAt = time.Now()
	return p, nil
}

// AddPlan adds a plan to the mock repository (helper for tests)
func (m *MockPlanRepository) AddPlan(plan *domain.InstallmentPlan) {
	m.Plans[plan.ID] = plan
	if plan.ID >= m.NextID {
		m.NextID = plan.ID + 1
	}
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository.
// When Plans is set, writes refresh the plan-level hints like the real store.
type MockPaymentRepository struct {
	Payments  map[int32]*domain.Payment
	NextID    int32
	Plans     *MockPlanRepository
	GetAllErr error
	// CreateCalls counts Create calls that reached the store
	CreateCalls int
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make(map[int32]*domain.Payment),
		NextID:   1,
	}
}

// Create stores a payment and applies the plan side effects
func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	m.CreateCalls++
	if m.Plans != nil {
		if _, ok := m.Plans.Plans[payment.PlanID]; !ok {
			return nil, domain.ErrPlanNotFound
		}
	}
	payment.ID = m.NextID
	m.NextID++
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	m.Payments[payment.ID] = payment
	m.refreshPlan(payment.PlanID)
	return payment, nil
}

// GetByID retrieves a payment by ID
func (m *MockPaymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	if p, ok := m.Payments[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPaymentNotFound
}

// GetAll returns every payment ordered by ID
func (m *MockPaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}
	result := make([]*domain.Payment, 0, len(m.Payments))
	for _, p := range m.Payments {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetByPlanID returns the payments of one plan
func (m *MockPaymentRepository) GetByPlanID(ctx context.Context, planID int32) ([]*domain.Payment, error) {
	all, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Payment, 0)
	for _, p := range all {
		if p.PlanID == planID {
			result = append(result, p)
		}
	}
	return result, nil
}

// GetByDateRange returns payments dated within [start, end]
func (m *MockPaymentRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Payment, error) {
	all, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Payment, 0)
	for _, p := range all {
		if !p.PaymentDate.Before(start) && !p.PaymentDate.After(end) {
			result = append(result, p)
		}
	}
	return result, nil
}

// Update replaces a payment
func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	existing, ok := m.Payments[payment.ID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	payment.CreatedAt = existing.CreatedAt
	payment.UpdatedAt = time.Now()
	m.Payments[payment.ID] = payment
	m.refreshPlan(payment.PlanID)
	return payment, nil
}

// Delete removes a payment
func (m *MockPaymentRepository) Delete(ctx context.Context, id int32) error {
	p, ok := m.Payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	delete(m.Payments, id)
	m.refreshPlan(p.PlanID)
	return nil
}

// AddPayment adds a payment to the mock repository (helper for tests)
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.Payments[payment.ID] = payment
	if payment.ID >= m.NextID {
		m.NextID = payment.ID + 1
	}
}

func (m *MockPaymentRepository) refreshPlan(planID int32) {
	if m.Plans == nil {
		return
	}
	plan, ok := m.Plans.Plans[planID]
	if !ok {
		return
	}
	monthly := decimal.Zero
	commissionPaid := false
	for _, p := range m.Payments {
		if p.PlanID != planID {
			continue
		}
		switch p.PaymentType {
		case domain.PaymentTypeMonthly:
			monthly = monthly.Add(p.AmountPaid)
		case domain.PaymentTypeCommission:
			commissionPaid = true
		}
	}
	plan.TotalPaidMonthly = monthly
	plan.IsCommissionPaid = commissionPaid
}

// PublishedEvent is one event captured by MockEventPublisher
type PublishedEvent struct {
	Topic string
	Event websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(topic string, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{Topic: topic, Event: event})
}

// Topics returns the topics events were published to, in order
func (m *MockEventPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, len(m.Events))
	for i, e := range m.Events {
		topics[i] = e.Topic
	}
	return topics
}

// MockObjectStore is an in-memory storage.ObjectStore
type MockObjectStore struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	UploadErr error
}

// NewMockObjectStore creates a new MockObjectStore
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{Objects: make(map[string][]byte)}
}

// Upload stores the object
func (m *MockObjectStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf
	return objectPath, nil
}

// Delete removes the object
func (m *MockObjectStore) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL embedding the path and expiry
func (m *MockObjectStore) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://objects.test/" + objectPath + "?expires=" + expiry.String(), nil
}
