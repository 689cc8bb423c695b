package ports

import (
	"context"

	"github.com/crmmini/core/internal/domain/entities"
)

// CustomerService interface for customer record operations
type CustomerService interface {
	ListCustomers(ctx context.Context) ([]entities.Customer, error)
	GetCustomer(ctx context.Context, id int64) (entities.Customer, error)
	CreateCustomer(ctx context.Context, body map[string]interface{}) (entities.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, body map[string]interface{}) (entities.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	Ready(ctx context.Context) error
}
