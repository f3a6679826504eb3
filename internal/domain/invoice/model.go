package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// Invoice represents a billing document for one student and one period.
// Total is immutable once the invoice leaves draft; AmountPaid and
// AmountRemaining are mutated exclusively through RecordPayment and
// RevertPayment, which the payment ledger invokes inside its transaction.
type Invoice struct {
	ID             string                 `db:"id" json:"id"`
	StudentID      string                 `db:"student_id" json:"student_id"`
	DocumentNumber string                 `db:"document_number" json:"document_number"`
	Category       types.DocumentCategory `db:"category" json:"category"`
	InvoiceStatus  types.InvoiceStatus    `db:"invoice_status" json:"invoice_status"`
	Subtotal       decimal.Decimal        `db:"subtotal" json:"subtotal"`
	Tax            decimal.Decimal        `db:"tax" json:"tax"`
	Total          decimal.Decimal        `db:"total" json:"total"`
	AmountPaid     decimal.Decimal        `db:"amount_paid" json:"amount_paid"`
	BillingPeriod  string                 `db:"billing_period" json:"billing_period"`
	IssuedAt       time.Time              `db:"issued_at" json:"issued_at"`
	DueDate        time.Time              `db:"due_date" json:"due_date"`
	PaidAt         *time.Time             `db:"paid_at" json:"paid_at,omitempty"`
	CancelledAt    *time.Time             `db:"cancelled_at" json:"cancelled_at,omitempty"`
	Description    string                 `db:"description" json:"description,omitempty"`
	Version        int                    `db:"version" json:"version"`
	LineItems      []*LineItem            `json:"line_items,omitempty"`

	types.BaseModel
}

// LineItem is one charged concept on an invoice, e.g. a month of course fees
// or an enrollment charge.
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`

	types.BaseModel
}

// GetRemainingAmount returns the balance still owed on the invoice.
func (i *Invoice) GetRemainingAmount() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

// CanApplyPayment checks whether the invoice can absorb a payment of the
// given amount, without mutating it. The ledger runs this over every invoice
// in an allocation before touching any of them, so a rejection anywhere
// leaves the whole batch unapplied.
func (i *Invoice) CanApplyPayment(amount decimal.Decimal) error {
	if !i.InvoiceStatus.AcceptsPayment() {
		return ierr.WithError(ErrAlreadySettled).
			WithHintf("Invoice %s is %s and can no longer receive payments", i.DocumentNumber, i.InvoiceStatus).
			WithReportableDetails(map[string]any{
				"invoice_id":      i.ID,
				"document_number": i.DocumentNumber,
				"invoice_status":  i.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	newPaid := i.AmountPaid.Add(amount)
	if newPaid.GreaterThan(i.Total) {
		return ierr.WithError(ErrPaymentExceedsBalance).
			WithHintf(
				"Payment of %s exceeds the remaining balance of invoice %s: total %s, already paid %s, balance %s",
				amount, i.DocumentNumber, i.Total, i.AmountPaid, i.GetRemainingAmount(),
			).
			WithReportableDetails(map[string]any{
				"invoice_id":        i.ID,
				"document_number":   i.DocumentNumber,
				"total":             i.Total,
				"already_paid":      i.AmountPaid,
				"remaining_balance": i.GetRemainingAmount(),
				"attempted_amount":  amount,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return nil
}

// RecordPayment applies one committed allocation to the invoice and advances
// its state. Callers must persist the mutated invoice in the same transaction
// that persists the payment record.
func (i *Invoice) RecordPayment(amount decimal.Decimal) error {
	if err := i.CanApplyPayment(amount); err != nil {
		return err
	}

	newPaid := i.AmountPaid.Add(amount)
	i.AmountPaid = newPaid
	if newPaid.Equal(i.Total) {
		i.InvoiceStatus = types.InvoiceStatusPaid
		paidAt := time.Now().UTC()
		i.PaidAt = &paidAt
	} else {
		i.InvoiceStatus = types.InvoiceStatusPartiallyPaid
	}
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// RevertPayment backs one voided allocation out of the invoice. The inverse
// of RecordPayment, used only by the ledger's void flow.
func (i *Invoice) RevertPayment(amount decimal.Decimal) error {
	if amount.GreaterThan(i.AmountPaid) {
		return ierr.NewError("cannot revert more than was paid").
			WithHintf("Invoice %s has %s paid, attempted to revert %s", i.DocumentNumber, i.AmountPaid, amount).
			WithReportableDetails(map[string]any{
				"invoice_id":       i.ID,
				"already_paid":     i.AmountPaid,
				"attempted_amount": amount,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	i.AmountPaid = i.AmountPaid.Sub(amount)
	i.PaidAt = nil
	if i.AmountPaid.IsZero() {
		i.InvoiceStatus = types.InvoiceStatusPending
	} else {
		i.InvoiceStatus = types.InvoiceStatusPartiallyPaid
	}
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func (i *Invoice) Validate() error {
	if i.StudentID == "" {
		return ierr.NewError("student id is required").
			WithHint("Invoice must belong to a student").
			Mark(ierr.ErrValidation)
	}

	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}
	if err := i.Category.Validate(); err != nil {
		return err
	}

	if !i.Total.IsPositive() {
		return ierr.NewError("invoice total must be positive").
			WithHint("Invoice total must be greater than zero").
			WithReportableDetails(map[string]any{
				"invoice_id": i.ID,
				"total":      i.Total,
			}).
			Mark(ierr.ErrValidation)
	}

	if i.AmountPaid.IsNegative() {
		return ierr.NewError("amount paid must be non negative").
			Mark(ierr.ErrValidation)
	}

	if i.AmountPaid.GreaterThan(i.Total) {
		return ierr.NewError("amount paid must not exceed total").
			WithReportableDetails(map[string]any{
				"invoice_id":  i.ID,
				"total":       i.Total,
				"amount_paid": i.AmountPaid,
			}).
			Mark(ierr.ErrValidation)
	}

	if !i.Subtotal.Add(i.Tax).Equal(i.Total) {
		return ierr.NewError("total must equal subtotal plus tax").
			WithReportableDetails(map[string]any{
				"invoice_id": i.ID,
				"subtotal":   i.Subtotal,
				"tax":        i.Tax,
				"total":      i.Total,
			}).
			Mark(ierr.ErrValidation)
	}

	if len(i.LineItems) == 0 {
		return ierr.NewError("invoice must have at least one line item").
			WithHint("At least one line item is required").
			Mark(ierr.ErrValidation)
	}
	for _, item := range i.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (li *LineItem) Validate() error {
	if li.Description == "" {
		return ierr.NewError("line item description is required").
			Mark(ierr.ErrValidation)
	}
	if !li.Quantity.IsPositive() {
		return ierr.NewError("line item quantity must be positive").
			WithReportableDetails(map[string]any{
				"description": li.Description,
				"quantity":    li.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	if !li.UnitPrice.IsPositive() {
		return ierr.NewError("line item unit price must be positive").
			WithReportableDetails(map[string]any{
				"description": li.Description,
				"unit_price":  li.UnitPrice,
			}).
			Mark(ierr.ErrValidation)
	}
	if !li.Amount.Equal(li.Quantity.Mul(li.UnitPrice)) {
		return ierr.NewError("line item amount must equal quantity times unit price").
			WithReportableDetails(map[string]any{
				"description": li.Description,
				"quantity":    li.Quantity,
				"unit_price":  li.UnitPrice,
				"amount":      li.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
