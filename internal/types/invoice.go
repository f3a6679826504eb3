package types

import (
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice can still be edited or deleted
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusPending indicates the invoice is billable and awaits payment
	InvoiceStatusPending InvoiceStatus = "PENDING"
	// InvoiceStatusPartiallyPaid indicates part of the total has been settled
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	// InvoiceStatusPaid indicates the total has been settled in full
	InvoiceStatusPaid InvoiceStatus = "PAID"
	// InvoiceStatusOverdue indicates the due date passed with an open balance
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	// InvoiceStatusCancelled indicates the invoice was cancelled before settlement
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusPending,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}
	for _, status := range allowed {
		if s == status {
			return nil
		}
	}
	return ierr.NewError("invalid invoice status").
		WithHint("Invalid invoice status").
		WithReportableDetails(map[string]any{
			"status":  s,
			"allowed": allowed,
		}).
		Mark(ierr.ErrValidation)
}

// AcceptsPayment reports whether an invoice in this state may still receive
// payment allocations.
func (s InvoiceStatus) AcceptsPayment() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// IsEditable reports whether invoice content may still be modified or the
// invoice deleted.
func (s InvoiceStatus) IsEditable() bool {
	return s == InvoiceStatusDraft
}

// IsTerminal reports whether the invoice lifecycle has ended.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	StudentID     string          `json:"student_id,omitempty" form:"student_id"`
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`
	BillingPeriod string          `json:"billing_period,omitempty" form:"billing_period"`
}
