package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crmmini/core/internal/domain/entities"
	"github.com/crmmini/core/internal/infrastructure/logger"
	"github.com/crmmini/core/internal/ports"
)

// CustomerService handles customer record operations
type CustomerService struct {
	// mu guards every load-mutate-save cycle against lost updates
	mu     sync.Mutex
	repo   ports.CustomerRepository
	logger *logger.Logger
	now    func() time.Time
}

var _ ports.CustomerService = (*CustomerService)(nil)

// NewCustomerService creates a new customer service
func NewCustomerService(repo ports.CustomerRepository, logger *logger.Logger) *CustomerService {
	return &CustomerService{
		repo:   repo,
		logger: logger.WithComponent("customer_service"),
		now:    time.Now,
	}
}

// WithClock replaces the time source used to assign ids.
func (s *CustomerService) WithClock(now func() time.Time) *CustomerService {
	s.now = now
	return s
}

// ListCustomers returns the whole collection in insertion order
func (s *CustomerService) ListCustomers(ctx context.Context) ([]entities.Customer, error) {
	customers, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// GetCustomer returns the first record with the given id
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (entities.Customer, error) {
	customers, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	for _, c := range customers {
		if c.HasID(id) {
			return c, nil
		}
	}
	return nil, entities.ErrCustomerNotFound
}

// CreateCustomer appends a new record built from body and returns it
func (s *CustomerService) CreateCustomer(ctx context.Context, body map[string]interface{}) (entities.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	customer := entities.NewCustomer(entities.NewID(s.now()), body)
	customers = append(customers, customer)
	s.save(ctx, customers)

	id, _ := customer.ID()
	s.logger.Infow("Customer created", "customer_id", id)

	return customer, nil
}

// UpdateCustomer shallow-merges body over the first record with the given id
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, body map[string]interface{}) (entities.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	index := -1
	for i, c := range customers {
		if c.HasID(id) {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, entities.ErrCustomerNotFound
	}

	customers[index] = customers[index].Merge(body)
	s.save(ctx, customers)

	s.logger.Infow("Customer updated", "customer_id", id)

	return customers[index], nil
}

// DeleteCustomer removes every record with the given id. Deleting an id
// that does not exist is not an error.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}

	kept := make([]entities.Customer, 0, len(customers))
	for _, c := range customers {
		if !c.HasID(id) {
			kept = append(kept, c)
		}
	}
	s.save(ctx, kept)

	s.logger.Infow("Customer deleted", "customer_id", id, "removed", len(customers)-len(kept))

	return nil
}

// Ready reports whether the backing store can be read
func (s *CustomerService) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// save writes the collection. A failed write is logged and otherwise
// ignored: the caller still gets the in-memory result.
func (s *CustomerService) save(ctx context.Context, customers []entities.Customer) {
	if err := s.repo.Save(ctx, customers); err != nil {
		s.logger.Warnw("Failed to persist customers", "error", err, "records", len(customers))
	}
}
