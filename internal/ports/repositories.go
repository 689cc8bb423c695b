package ports

import (
	"context"

	"github.com/crmmini/core/internal/domain/entities"
)

// CustomerRepository persists the whole customer collection at once.
// Implementations are not required to be safe for concurrent
// read-modify-write cycles; callers serialize those.
type CustomerRepository interface {
	// Load returns every record in insertion order. A missing backing
	// store is initialized empty.
	Load(ctx context.Context) ([]entities.Customer, error)

	// Save replaces the stored collection with records.
	Save(ctx context.Context, records []entities.Customer) error

	// Ping reports whether the backing store is reachable and readable.
	Ping(ctx context.Context) error
}
