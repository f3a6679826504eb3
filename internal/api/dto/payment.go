package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/payment"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/validator"
)

// RegisterPaymentRequest records a payment from a student and applies it
// across one or more of their invoices. The single-invoice shorthand
// (invoice_id + amount with no allocations) is normalized into a one-element
// allocation list before validation, so both shapes flow through the same
// ledger path.
type RegisterPaymentRequest struct {
	StudentID         string                  `json:"student_id" validate:"required"`
	PaymentMethodType types.PaymentMethodType `json:"payment_method_type" validate:"required"`
	Amount            decimal.Decimal         `json:"amount"`
	InvoiceID         string                  `json:"invoice_id,omitempty"`
	Allocations       []AllocationRequest     `json:"allocations,omitempty"`
	PaymentDate       *time.Time              `json:"payment_date,omitempty"`
	Notes             string                  `json:"notes,omitempty"`
	IdempotencyKey    string                  `json:"idempotency_key,omitempty"`
	Metadata          types.Metadata          `json:"metadata,omitempty"`
}

// AllocationRequest directs part of a payment at a specific invoice
type AllocationRequest struct {
	InvoiceID string          `json:"invoice_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// Normalize rewrites the single-invoice shorthand into the allocation form.
// Requests that already carry allocations are left untouched.
func (r *RegisterPaymentRequest) Normalize() {
	if len(r.Allocations) == 0 && r.InvoiceID != "" {
		r.Allocations = []AllocationRequest{{
			InvoiceID: r.InvoiceID,
			Amount:    r.Amount,
		}}
	}
	if r.Amount.IsZero() && len(r.Allocations) > 0 {
		total := decimal.Zero
		for _, a := range r.Allocations {
			total = total.Add(a.Amount)
		}
		r.Amount = total
	}
}

func (r *RegisterPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if err := r.PaymentMethodType.Validate(); err != nil {
		return err
	}

	if len(r.Allocations) == 0 {
		return ierr.NewError("payment must target at least one invoice").
			WithHint("Provide an invoice_id or a non-empty allocations list").
			Mark(ierr.ErrValidation)
	}

	seen := make(map[string]bool, len(r.Allocations))
	total := decimal.Zero
	for _, a := range r.Allocations {
		if a.InvoiceID == "" {
			return ierr.NewError("allocation invoice id is required").
				WithHint("Each allocation must name an invoice").
				Mark(ierr.ErrValidation)
		}
		if seen[a.InvoiceID] {
			return ierr.NewError("duplicate invoice in allocations").
				WithHintf("Invoice %s appears more than once", a.InvoiceID).
				Mark(ierr.ErrValidation)
		}
		seen[a.InvoiceID] = true

		if !a.Amount.IsPositive() {
			return ierr.NewError("allocation amount must be positive").
				WithHintf("Amount for invoice %s must be greater than zero", a.InvoiceID).
				WithReportableDetails(map[string]any{
					"invoice_id": a.InvoiceID,
					"amount":     a.Amount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		total = total.Add(a.Amount)
	}

	if !r.Amount.Equal(total) {
		return ierr.NewError("payment amount does not match allocations").
			WithHint("The payment amount must equal the sum of its allocations").
			WithReportableDetails(map[string]any{
				"amount":          r.Amount.String(),
				"allocations_sum": total.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// VoidPaymentRequest reverses a recorded payment
type VoidPaymentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AllocationResponse reports how much of a payment landed on an invoice
type AllocationResponse struct {
	InvoiceID     string          `json:"invoice_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

// InvoiceSettlementResponse reports an invoice's settlement state after a
// payment was applied to it
type InvoiceSettlementResponse struct {
	InvoiceID        string              `json:"invoice_id"`
	DocumentNumber   string              `json:"document_number"`
	InvoiceStatus    types.InvoiceStatus `json:"invoice_status"`
	Total            decimal.Decimal     `json:"total"`
	TotalPaid        decimal.Decimal     `json:"total_paid"`
	RemainingBalance decimal.Decimal     `json:"remaining_balance"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                string                  `json:"id"`
	ReceiptNumber     string                  `json:"receipt_number"`
	StudentID         string                  `json:"student_id"`
	PaymentMethodType types.PaymentMethodType `json:"payment_method_type"`
	PaymentStatus     types.PaymentStatus     `json:"payment_status"`
	Amount            decimal.Decimal         `json:"amount"`
	PaymentDate       time.Time               `json:"payment_date"`
	Notes             string                  `json:"notes,omitempty"`
	VoidedAt          *time.Time              `json:"voided_at,omitempty"`
	VoidReason        *string                 `json:"void_reason,omitempty"`
	Allocations       []*AllocationResponse   `json:"allocations"`
}

func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:                p.ID,
		ReceiptNumber:     p.ReceiptNumber,
		StudentID:         p.StudentID,
		PaymentMethodType: p.PaymentMethodType,
		PaymentStatus:     p.PaymentStatus,
		Amount:            p.Amount,
		PaymentDate:       p.PaymentDate,
		Notes:             p.Notes,
		VoidedAt:          p.VoidedAt,
		VoidReason:        p.VoidReason,
	}
	for _, a := range p.Allocations {
		resp.Allocations = append(resp.Allocations, &AllocationResponse{
			InvoiceID:     a.InvoiceID,
			AmountApplied: a.AmountApplied,
		})
	}
	return resp
}

// RegisterPaymentResponse is the full result of recording a payment: the
// receipt plus the settlement state of every invoice it touched
type RegisterPaymentResponse struct {
	Payment  *PaymentResponse             `json:"payment"`
	Invoices []*InvoiceSettlementResponse `json:"invoices"`
}

// ListPaymentsResponse represents a list of payments
type ListPaymentsResponse struct {
	Items []*PaymentResponse `json:"items"`
	Total int                `json:"total"`
}
