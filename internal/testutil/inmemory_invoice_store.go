package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice repository
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func (m *InMemoryInvoiceStore) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return m.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (m *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(invoice.ErrInvoiceNotFound).
			WithHintf("Invoice with id %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

// GetForUpdate behaves like Get; the mock client runs everything in a single
// goroutine-visible store so there is no row to lock. Mutations only become
// visible through Update, matching the real repository.
func (m *InMemoryInvoiceStore) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	return m.Get(ctx, id)
}

func (m *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			WithHint("Invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	stored, err := m.InMemoryStore.Get(ctx, inv.ID)
	if err != nil {
		return ierr.WithError(invoice.ErrInvoiceNotFound).
			WithHintf("Invoice with id %s not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	if stored.Version != inv.Version {
		return ierr.NewError("invoice was modified concurrently").
			WithHintf("Invoice %s version %d does not match stored version %d", inv.ID, inv.Version, stored.Version).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	inv.UpdatedAt = time.Now().UTC()
	return m.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv))
}

func (m *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	if err := m.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.WithError(invoice.ErrInvoiceNotFound).
			WithHintf("Invoice with id %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (m *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	// Same ordering as the SQL repository: issued_at DESC, id DESC
	invoices, err := m.InMemoryStore.List(ctx, filter, invoiceFilterFn,
		func(i, j *invoice.Invoice) bool {
			if !i.IssuedAt.Equal(j.IssuedAt) {
				return i.IssuedAt.After(j.IssuedAt)
			}
			return i.ID > j.ID
		})
	if err != nil {
		return nil, err
	}
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(inv)
	}), nil
}

func (m *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return m.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func invoiceFilterFn(_ context.Context, inv *invoice.Invoice, filter interface{}) bool {
	f, ok := filter.(*types.InvoiceFilter)
	if !ok || f == nil {
		return true
	}

	if f.StudentID != "" && inv.StudentID != f.StudentID {
		return false
	}
	if f.BillingPeriod != "" && inv.BillingPeriod != f.BillingPeriod {
		return false
	}
	if len(f.InvoiceStatus) > 0 && !lo.Contains(f.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}
	return true
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	c := *inv
	c.LineItems = make([]*invoice.LineItem, len(inv.LineItems))
	for i, item := range inv.LineItems {
		itemCopy := *item
		c.LineItems[i] = &itemCopy
	}
	return &c
}
