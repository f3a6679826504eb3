package invoice

import (
	"context"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// CreateWithLineItems creates a new invoice and its line items atomically
	CreateWithLineItems(ctx context.Context, inv *Invoice) error

	// Get retrieves an invoice by ID including its line items
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetForUpdate retrieves an invoice and locks its row for the duration of
	// the surrounding transaction. Used by the payment ledger's
	// read-validate-write path.
	GetForUpdate(ctx context.Context, id string) (*Invoice, error)

	// Update updates an existing invoice's mutable fields
	Update(ctx context.Context, inv *Invoice) error

	// Delete removes an invoice. The service layer only permits this for
	// drafts.
	Delete(ctx context.Context, id string) error

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
}
