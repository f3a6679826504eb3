package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/payment"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
	}
}

func (m *InMemoryPaymentStore) CreateWithAllocations(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return m.InMemoryStore.Create(ctx, p.ID, copyPayment(p))
}

func (m *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Payment with id %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(p), nil
}

func (m *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	p.UpdatedAt = time.Now().UTC()
	return m.InMemoryStore.Update(ctx, p.ID, copyPayment(p))
}

func (m *InMemoryPaymentStore) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	payments, err := m.InMemoryStore.List(ctx, filter, paymentFilterFn,
		func(i, j *payment.Payment) bool { return i.PaymentDate.After(j.PaymentDate) })
	if err != nil {
		return nil, err
	}
	return lo.Map(payments, func(p *payment.Payment, _ int) *payment.Payment {
		return copyPayment(p)
	}), nil
}

func (m *InMemoryPaymentStore) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	return m.InMemoryStore.Count(ctx, filter, paymentFilterFn)
}

func (m *InMemoryPaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	payments, err := m.InMemoryStore.List(ctx, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			return copyPayment(p), nil
		}
	}
	return nil, ierr.NewError("payment not found").
		WithHintf("No payment with idempotency key %s", key).
		Mark(ierr.ErrNotFound)
}

func paymentFilterFn(_ context.Context, p *payment.Payment, filter interface{}) bool {
	f, ok := filter.(*types.PaymentFilter)
	if !ok || f == nil {
		return true
	}

	if f.StudentID != "" && p.StudentID != f.StudentID {
		return false
	}
	if f.PaymentStatus != nil && p.PaymentStatus != *f.PaymentStatus {
		return false
	}
	if f.InvoiceID != "" {
		allocated := lo.SomeBy(p.Allocations, func(a *payment.Allocation) bool {
			return a.InvoiceID == f.InvoiceID
		})
		if !allocated {
			return false
		}
	}
	return true
}

func copyPayment(p *payment.Payment) *payment.Payment {
	c := *p
	c.Allocations = make([]*payment.Allocation, len(p.Allocations))
	for i, a := range p.Allocations {
		allocCopy := *a
		c.Allocations[i] = &allocCopy
	}
	return &c
}
