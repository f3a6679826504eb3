package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/dto"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// InvoiceService manages the invoice lifecycle. Document numbers come from
// the numbering service and are assigned when an invoice becomes billable:
// immediately for regular creation, at authorization for drafts. Settlement
// fields are owned by the payment ledger and never mutated here.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)

	// UpdateDraftInvoice edits a draft's content. Invoices that have left the
	// draft state are immutable.
	UpdateDraftInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)

	// DeleteDraftInvoice removes a draft. Issued invoices cannot be deleted,
	// only cancelled.
	DeleteDraftInvoice(ctx context.Context, id string) error

	// AuthorizeInvoice promotes a draft to billable, assigning its document
	// number.
	AuthorizeInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)

	// CancelInvoice terminates an unpaid invoice.
	CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)

	// MarkOverdueInvoices flags open invoices whose due date has passed.
	// Intended to run on a schedule; returns the number of invoices flagged.
	MarkOverdueInvoices(ctx context.Context) (int, error)
}

type invoiceService struct {
	ServiceParams
	numbering NumberingService
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
		numbering:     NewNumberingService(params),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, err := s.StudentRepo.Get(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	inv := req.ToInvoice(ctx)
	inv.Category = st.TaxCondition.InvoiceCategory()

	// Drafts are not yet billable and carry no document number; the counter
	// is only consumed when the invoice is issued.
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if !req.Draft {
			number, category, nerr := s.numbering.NextInvoiceNumber(txCtx, st.TaxCondition)
			if nerr != nil {
				return nerr
			}
			inv.DocumentNumber = number
			inv.Category = category
		}

		if verr := inv.Validate(); verr != nil {
			return verr
		}
		return s.InvoiceRepo.CreateWithLineItems(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"student_id", inv.StudentID,
		"document_number", inv.DocumentNumber,
		"invoice_status", inv.InvoiceStatus,
		"total", inv.Total)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = &types.InvoiceFilter{}
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListInvoicesResponse{
		Items: make([]*dto.InvoiceResponse, 0, len(invoices)),
		Total: total,
	}
	for _, inv := range invoices {
		resp.Items = append(resp.Items, dto.NewInvoiceResponse(inv))
	}
	return resp, nil
}

func (s *invoiceService) UpdateDraftInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var gerr error
		inv, gerr = s.InvoiceRepo.GetForUpdate(txCtx, id)
		if gerr != nil {
			return gerr
		}

		if !inv.InvoiceStatus.IsEditable() {
			return s.notEditableErr(inv)
		}

		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.Description != nil {
			inv.Description = *req.Description
		}
		if len(req.LineItems) > 0 {
			inv.LineItems = nil
			subtotal := decimal.Zero
			for _, item := range req.LineItems {
				amount := item.Quantity.Mul(item.UnitPrice)
				inv.LineItems = append(inv.LineItems, &invoice.LineItem{
					ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
					InvoiceID:   inv.ID,
					Description: item.Description,
					Quantity:    item.Quantity,
					UnitPrice:   item.UnitPrice,
					Amount:      amount,
					BaseModel:   types.GetDefaultBaseModel(txCtx),
				})
				subtotal = subtotal.Add(amount)
			}
			inv.Subtotal = subtotal
			inv.Total = subtotal.Add(inv.Tax)
		}

		if verr := inv.Validate(); verr != nil {
			return verr
		}
		return s.InvoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) DeleteDraftInvoice(ctx context.Context, id string) error {
	return s.DB.WithTx(ctx, func(txCtx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if !inv.InvoiceStatus.IsEditable() {
			return s.notEditableErr(inv)
		}

		if err := s.InvoiceRepo.Delete(txCtx, id); err != nil {
			return err
		}

		s.Logger.Infow("deleted draft invoice", "invoice_id", id)
		return nil
	})
}

func (s *invoiceService) AuthorizeInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var gerr error
		inv, gerr = s.InvoiceRepo.GetForUpdate(txCtx, id)
		if gerr != nil {
			return gerr
		}

		if inv.InvoiceStatus != types.InvoiceStatusDraft {
			return ierr.NewError("only draft invoices can be authorized").
				WithHintf("Invoice is %s", inv.InvoiceStatus).
				WithReportableDetails(map[string]any{
					"invoice_id":     inv.ID,
					"invoice_status": inv.InvoiceStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		st, gerr := s.StudentRepo.Get(txCtx, inv.StudentID)
		if gerr != nil {
			return gerr
		}

		number, category, nerr := s.numbering.NextInvoiceNumber(txCtx, st.TaxCondition)
		if nerr != nil {
			return nerr
		}
		inv.DocumentNumber = number
		inv.Category = category
		inv.InvoiceStatus = types.InvoiceStatusPending
		inv.IssuedAt = time.Now().UTC()

		return s.InvoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("authorized invoice",
		"invoice_id", inv.ID,
		"document_number", inv.DocumentNumber)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var gerr error
		inv, gerr = s.InvoiceRepo.GetForUpdate(txCtx, id)
		if gerr != nil {
			return gerr
		}

		if inv.InvoiceStatus.IsTerminal() {
			return ierr.WithError(invoice.ErrAlreadySettled).
				WithHintf("Invoice is already %s", inv.InvoiceStatus).
				WithReportableDetails(map[string]any{
					"invoice_id":     inv.ID,
					"invoice_status": inv.InvoiceStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if inv.AmountPaid.IsPositive() {
			return ierr.NewError("cannot cancel an invoice with payments applied").
				WithHint("Void the payments first, then cancel the invoice").
				WithReportableDetails(map[string]any{
					"invoice_id":  inv.ID,
					"amount_paid": inv.AmountPaid,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		now := time.Now().UTC()
		inv.InvoiceStatus = types.InvoiceStatusCancelled
		inv.CancelledAt = &now
		return s.InvoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled invoice",
		"invoice_id", inv.ID,
		"document_number", inv.DocumentNumber)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) MarkOverdueInvoices(ctx context.Context) (int, error) {
	open, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{
		InvoiceStatus: []types.InvoiceStatus{
			types.InvoiceStatusPending,
			types.InvoiceStatusPartiallyPaid,
		},
	})
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	flagged := 0
	for _, inv := range open {
		if !inv.DueDate.Before(now) {
			continue
		}

		err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
			locked, gerr := s.InvoiceRepo.GetForUpdate(txCtx, inv.ID)
			if gerr != nil {
				return gerr
			}
			// Re-check under lock; a payment may have settled it meanwhile
			if !locked.InvoiceStatus.AcceptsPayment() || !locked.DueDate.Before(now) {
				return nil
			}
			locked.InvoiceStatus = types.InvoiceStatusOverdue
			return s.InvoiceRepo.Update(txCtx, locked)
		})
		if err != nil {
			s.Logger.Errorw("failed to mark invoice overdue",
				"invoice_id", inv.ID,
				"error", err)
			continue
		}
		flagged++
	}

	if flagged > 0 {
		s.Logger.Infow("marked invoices overdue", "count", flagged)
	}
	return flagged, nil
}

func (s *invoiceService) notEditableErr(inv *invoice.Invoice) error {
	return ierr.WithError(invoice.ErrNotEditable).
		WithHintf("Invoice %s is %s and can no longer be edited or deleted", inv.ID, inv.InvoiceStatus).
		WithReportableDetails(map[string]any{
			"invoice_id":     inv.ID,
			"invoice_status": inv.InvoiceStatus,
		}).
		Mark(ierr.ErrInvalidOperation)
}
