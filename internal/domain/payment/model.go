package payment

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// Payment is an immutable record of money received from one student,
// allocated across one or more of their invoices. Corrections are modeled as
// a void, never as an edit.
type Payment struct {
	ID string `db:"id" json:"id"`
	// ReceiptNumber is the sequential, externally meaningful receipt
	// identifier (RC-00001-00000001)
	ReceiptNumber string `db:"receipt_number" json:"receipt_number"`
	// StudentID references the paying student; every allocated invoice must
	// belong to the same student
	StudentID         string                  `db:"student_id" json:"student_id"`
	PaymentMethodType types.PaymentMethodType `db:"payment_method_type" json:"payment_method_type"`
	PaymentStatus     types.PaymentStatus     `db:"payment_status" json:"payment_status"`
	// Amount is the sum of all allocations in this payment
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate    time.Time       `db:"payment_date" json:"payment_date"`
	Notes          string          `db:"notes" json:"notes,omitempty"`
	IdempotencyKey *string         `db:"idempotency_key" json:"idempotency_key,omitempty"`
	VoidedAt       *time.Time      `db:"voided_at" json:"voided_at,omitempty"`
	VoidReason     *string         `db:"void_reason" json:"void_reason,omitempty"`
	Metadata       types.Metadata  `db:"metadata" json:"metadata,omitempty"`
	Allocations    []*Allocation   `json:"allocations,omitempty"`

	types.BaseModel
}

// Allocation is the portion of a single payment applied to one specific
// invoice.
type Allocation struct {
	ID            string          `db:"id" json:"id"`
	PaymentID     string          `db:"payment_id" json:"payment_id"`
	InvoiceID     string          `db:"invoice_id" json:"invoice_id"`
	AmountApplied decimal.Decimal `db:"amount_applied" json:"amount_applied"`

	types.BaseModel
}

// Validate validates the payment and its allocations
func (p *Payment) Validate() error {
	if p.StudentID == "" {
		return ierr.NewError("student id is required").
			WithHint("Payment must belong to a student").
			Mark(ierr.ErrValidation)
	}
	if err := p.PaymentMethodType.Validate(); err != nil {
		return err
	}
	if err := p.PaymentStatus.Validate(); err != nil {
		return err
	}
	if len(p.Allocations) == 0 {
		return ierr.NewError("payment must have at least one allocation").
			WithHint("At least one invoice allocation is required").
			Mark(ierr.ErrValidation)
	}

	sum := decimal.Zero
	for _, alloc := range p.Allocations {
		if err := alloc.Validate(); err != nil {
			return err
		}
		sum = sum.Add(alloc.AmountApplied)
	}
	if !sum.Equal(p.Amount) {
		return ierr.NewError("payment amount must equal sum of allocations").
			WithReportableDetails(map[string]any{
				"payment_id":      p.ID,
				"amount":          p.Amount,
				"allocations_sum": sum,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Validate validates one allocation
func (a *Allocation) Validate() error {
	if a.InvoiceID == "" {
		return ierr.NewError("allocation invoice id is required").
			WithHint("Each allocation must reference an invoice").
			Mark(ierr.ErrValidation)
	}
	if !a.AmountApplied.IsPositive() {
		return ierr.NewError("allocation amount must be positive").
			WithHintf("Allocation for invoice %s must be greater than zero", a.InvoiceID).
			WithReportableDetails(map[string]any{
				"invoice_id":     a.InvoiceID,
				"amount_applied": a.AmountApplied,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsVoided reports whether the payment has been voided
func (p *Payment) IsVoided() bool {
	return p.PaymentStatus == types.PaymentStatusVoided
}
