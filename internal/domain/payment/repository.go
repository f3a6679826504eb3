package payment

import (
	"context"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// CreateWithAllocations persists a payment and all of its allocations
	// atomically
	CreateWithAllocations(ctx context.Context, p *Payment) error

	// Get retrieves a payment by ID including its allocations
	Get(ctx context.Context, id string) (*Payment, error)

	// Update updates a payment's mutable fields (void markers only; payments
	// are otherwise immutable)
	Update(ctx context.Context, p *Payment) error

	// List retrieves payments based on filter criteria, newest payment date
	// first
	List(ctx context.Context, filter *types.PaymentFilter) ([]*Payment, error)

	// Count returns the total count of payments based on filter criteria
	Count(ctx context.Context, filter *types.PaymentFilter) (int, error)

	// GetByIdempotencyKey retrieves a payment by its idempotency key
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
}
