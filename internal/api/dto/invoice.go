package dto

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/validator"
)

// CreateInvoiceRequest represents a request to issue an invoice to a student
type CreateInvoiceRequest struct {
	StudentID     string                   `json:"student_id" validate:"required"`
	LineItems     []CreateLineItemRequest  `json:"line_items" validate:"required,min=1,dive"`
	BillingPeriod string                   `json:"billing_period" validate:"required"`
	DueDate       time.Time                `json:"due_date" validate:"required"`
	Description   string                   `json:"description,omitempty"`
	// Draft keeps the invoice editable until it is authorized. Created
	// invoices are billable immediately by default.
	Draft bool `json:"draft,omitempty"`
}

// CreateLineItemRequest is one charged concept on the new invoice
type CreateLineItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	for _, item := range r.LineItems {
		if !item.Quantity.IsPositive() {
			return ierr.NewError("line item quantity must be positive").
				WithHintf("Quantity for %q must be greater than zero", item.Description).
				Mark(ierr.ErrValidation)
		}
		if !item.UnitPrice.IsPositive() {
			return ierr.NewError("line item unit price must be positive").
				WithHintf("Unit price for %q must be greater than zero", item.Description).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ToInvoice builds the domain invoice with computed amounts. Document number
// and category are assigned by the invoice service.
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		StudentID:     r.StudentID,
		InvoiceStatus: types.InvoiceStatusPending,
		BillingPeriod: r.BillingPeriod,
		IssuedAt:      time.Now().UTC(),
		DueDate:       r.DueDate,
		Description:   r.Description,
		Tax:           decimal.Zero,
		AmountPaid:    decimal.Zero,
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if r.Draft {
		inv.InvoiceStatus = types.InvoiceStatusDraft
	}

	subtotal := decimal.Zero
	for _, item := range r.LineItems {
		amount := item.Quantity.Mul(item.UnitPrice)
		inv.LineItems = append(inv.LineItems, &invoice.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			InvoiceID:   inv.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
		subtotal = subtotal.Add(amount)
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Add(inv.Tax)

	return inv
}

// UpdateInvoiceRequest edits a draft invoice. Only drafts are editable.
type UpdateInvoiceRequest struct {
	LineItems   []CreateLineItemRequest `json:"line_items,omitempty"`
	DueDate     *time.Time              `json:"due_date,omitempty"`
	Description *string                 `json:"description,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             string                 `json:"id"`
	StudentID      string                 `json:"student_id"`
	DocumentNumber string                 `json:"document_number"`
	Category       types.DocumentCategory `json:"category"`
	InvoiceStatus  types.InvoiceStatus    `json:"invoice_status"`
	Subtotal       decimal.Decimal        `json:"subtotal"`
	Tax            decimal.Decimal        `json:"tax"`
	Total          decimal.Decimal        `json:"total"`
	TotalPaid      decimal.Decimal        `json:"total_paid"`
	Remaining      decimal.Decimal        `json:"remaining_balance"`
	BillingPeriod  string                 `json:"billing_period"`
	IssuedAt       time.Time              `json:"issued_at"`
	DueDate        time.Time              `json:"due_date"`
	PaidAt         *time.Time             `json:"paid_at,omitempty"`
	Description    string                 `json:"description,omitempty"`
	LineItems      []*LineItemResponse    `json:"line_items,omitempty"`
}

// LineItemResponse represents one invoice line item in API responses
type LineItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:             inv.ID,
		StudentID:      inv.StudentID,
		DocumentNumber: inv.DocumentNumber,
		Category:       inv.Category,
		InvoiceStatus:  inv.InvoiceStatus,
		Subtotal:       inv.Subtotal,
		Tax:            inv.Tax,
		Total:          inv.Total,
		TotalPaid:      inv.AmountPaid,
		Remaining:      inv.GetRemainingAmount(),
		BillingPeriod:  inv.BillingPeriod,
		IssuedAt:       inv.IssuedAt,
		DueDate:        inv.DueDate,
		PaidAt:         inv.PaidAt,
		Description:    inv.Description,
	}
	for _, item := range inv.LineItems {
		resp.LineItems = append(resp.LineItems, &LineItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return resp
}

// ListInvoicesResponse represents a list of invoices
type ListInvoicesResponse struct {
	Items []*InvoiceResponse `json:"items"`
	Total int                `json:"total"`
}
