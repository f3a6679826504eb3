package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/dto"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/payment"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/idempotency"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// PaymentService is the payment ledger. RegisterPayment is the single write
// path for settlement state: it validates every allocation against its
// locked invoice before mutating anything, so a rejection anywhere leaves the
// ledger, every invoice and the receipt counter untouched. One receipt number
// is consumed per successful registration, never on failure.
type PaymentService interface {
	RegisterPayment(ctx context.Context, req *dto.RegisterPaymentRequest) (*dto.RegisterPaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error)

	// VoidPayment reverses a payment, backing every allocation out of its
	// invoice. The payment record and its receipt number are kept.
	VoidPayment(ctx context.Context, id string, req *dto.VoidPaymentRequest) (*dto.PaymentResponse, error)
}

type paymentService struct {
	ServiceParams
	numbering NumberingService
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		numbering:     NewNumberingService(params),
	}
}

func (s *paymentService) RegisterPayment(ctx context.Context, req *dto.RegisterPaymentRequest) (*dto.RegisterPaymentResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.StudentRepo.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ierr.NewError("student not found").
			WithHintf("No student with id %s", req.StudentID).
			Mark(ierr.ErrNotFound)
	}

	// Idempotent replay only happens on an explicit caller key. Identical
	// keyless payments are distinct by definition: the same student paying
	// the same amount twice is two payments, not one retried.
	if req.IdempotencyKey != "" {
		existing, rerr := s.PaymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if rerr != nil && !ierr.IsNotFound(rerr) {
			return nil, rerr
		}
		if existing != nil {
			if s.requestFingerprint(req) != s.paymentFingerprint(existing) {
				return nil, ierr.NewError("idempotency key reused with different content").
					WithHintf("Key %s already produced receipt %s for a different request", req.IdempotencyKey, existing.ReceiptNumber).
					WithReportableDetails(map[string]any{
						"idempotency_key": req.IdempotencyKey,
						"payment_id":      existing.ID,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
			s.Logger.Infow("replaying idempotent payment registration",
				"payment_id", existing.ID,
				"idempotency_key", req.IdempotencyKey)
			return s.buildRegisterResponse(ctx, existing)
		}
	}

	p := &payment.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		StudentID:         req.StudentID,
		PaymentMethodType: req.PaymentMethodType,
		PaymentStatus:     types.PaymentStatusSucceeded,
		Amount:            req.Amount,
		PaymentDate:       time.Now().UTC(),
		Notes:             req.Notes,
		Metadata:          req.Metadata,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	if req.IdempotencyKey != "" {
		p.IdempotencyKey = lo.ToPtr(req.IdempotencyKey)
	}
	if req.PaymentDate != nil {
		p.PaymentDate = req.PaymentDate.UTC()
	}
	for _, a := range req.Allocations {
		p.Allocations = append(p.Allocations, &payment.Allocation{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_ALLOCATION),
			PaymentID:     p.ID,
			InvoiceID:     a.InvoiceID,
			AmountApplied: a.Amount,
			BaseModel:     types.GetDefaultBaseModel(ctx),
		})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var touched []*invoice.Invoice

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		// Lock invoices in a stable order so two concurrent multi-invoice
		// payments cannot deadlock against each other
		allocs := make([]*payment.Allocation, len(p.Allocations))
		copy(allocs, p.Allocations)
		sort.Slice(allocs, func(i, j int) bool { return allocs[i].InvoiceID < allocs[j].InvoiceID })

		invoices := make(map[string]*invoice.Invoice, len(allocs))
		for _, alloc := range allocs {
			inv, gerr := s.InvoiceRepo.GetForUpdate(txCtx, alloc.InvoiceID)
			if gerr != nil {
				return gerr
			}
			if inv.StudentID != p.StudentID {
				return ierr.WithError(invoice.ErrOwnershipMismatch).
					WithHintf("Invoice %s does not belong to student %s", inv.DocumentNumber, p.StudentID).
					WithReportableDetails(map[string]any{
						"invoice_id": inv.ID,
						"student_id": p.StudentID,
					}).
					Mark(ierr.ErrPermissionDenied)
			}
			invoices[alloc.InvoiceID] = inv
		}

		// Validation pass over every locked invoice before any mutation.
		// A failure here rolls nothing back because nothing was written.
		for _, alloc := range allocs {
			if cerr := invoices[alloc.InvoiceID].CanApplyPayment(alloc.AmountApplied); cerr != nil {
				return cerr
			}
		}

		// Only now consume a receipt number, so rejected payments never
		// burn one
		receipt, nerr := s.numbering.NextReceiptNumber(txCtx)
		if nerr != nil {
			return nerr
		}
		p.ReceiptNumber = receipt

		if cerr := s.PaymentRepo.CreateWithAllocations(txCtx, p); cerr != nil {
			return cerr
		}

		for _, alloc := range allocs {
			inv := invoices[alloc.InvoiceID]
			if aerr := inv.RecordPayment(alloc.AmountApplied); aerr != nil {
				return aerr
			}
			if uerr := s.InvoiceRepo.Update(txCtx, inv); uerr != nil {
				return uerr
			}
		}

		// Preserve the caller's allocation order in the response
		for _, alloc := range p.Allocations {
			touched = append(touched, invoices[alloc.InvoiceID])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("registered payment",
		"payment_id", p.ID,
		"receipt_number", p.ReceiptNumber,
		"student_id", p.StudentID,
		"amount", p.Amount,
		"invoice_count", len(p.Allocations))

	return &dto.RegisterPaymentResponse{
		Payment:  dto.NewPaymentResponse(p),
		Invoices: lo.Map(touched, func(inv *invoice.Invoice, _ int) *dto.InvoiceSettlementResponse {
			return newSettlementResponse(inv)
		}),
	}, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponse(p), nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error) {
	if filter == nil {
		filter = &types.PaymentFilter{}
	}

	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.PaymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListPaymentsResponse{
		Items: make([]*dto.PaymentResponse, 0, len(payments)),
		Total: total,
	}
	for _, p := range payments {
		resp.Items = append(resp.Items, dto.NewPaymentResponse(p))
	}
	return resp, nil
}

func (s *paymentService) VoidPayment(ctx context.Context, id string, req *dto.VoidPaymentRequest) (*dto.PaymentResponse, error) {
	var p *payment.Payment

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var gerr error
		p, gerr = s.PaymentRepo.Get(txCtx, id)
		if gerr != nil {
			return gerr
		}

		if p.IsVoided() {
			return ierr.NewError("payment already voided").
				WithHintf("Payment %s was voided at %s", p.ReceiptNumber, p.VoidedAt.Format(time.RFC3339)).
				WithReportableDetails(map[string]any{
					"payment_id":     p.ID,
					"receipt_number": p.ReceiptNumber,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		allocs := make([]*payment.Allocation, len(p.Allocations))
		copy(allocs, p.Allocations)
		sort.Slice(allocs, func(i, j int) bool { return allocs[i].InvoiceID < allocs[j].InvoiceID })

		for _, alloc := range allocs {
			inv, lerr := s.InvoiceRepo.GetForUpdate(txCtx, alloc.InvoiceID)
			if lerr != nil {
				return lerr
			}
			if rerr := inv.RevertPayment(alloc.AmountApplied); rerr != nil {
				return rerr
			}
			if uerr := s.InvoiceRepo.Update(txCtx, inv); uerr != nil {
				return uerr
			}
		}

		now := time.Now().UTC()
		p.PaymentStatus = types.PaymentStatusVoided
		p.VoidedAt = &now
		if req != nil && req.Reason != "" {
			p.VoidReason = &req.Reason
		}
		return s.PaymentRepo.Update(txCtx, p)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("voided payment",
		"payment_id", p.ID,
		"receipt_number", p.ReceiptNumber)
	return dto.NewPaymentResponse(p), nil
}

// requestFingerprint and paymentFingerprint reduce a request and a stored
// payment to the same content hash, so a replayed key can be checked against
// what it originally paid for.
func (s *paymentService) requestFingerprint(req *dto.RegisterPaymentRequest) string {
	params := map[string]interface{}{
		"student_id": req.StudentID,
		"amount":     req.Amount.String(),
		"method":     string(req.PaymentMethodType),
	}
	for _, a := range req.Allocations {
		params["alloc_"+a.InvoiceID] = a.Amount.String()
	}
	return s.IdempGen.GenerateKey(idempotency.ScopePayment, params)
}

func (s *paymentService) paymentFingerprint(p *payment.Payment) string {
	params := map[string]interface{}{
		"student_id": p.StudentID,
		"amount":     p.Amount.String(),
		"method":     string(p.PaymentMethodType),
	}
	for _, a := range p.Allocations {
		params["alloc_"+a.InvoiceID] = a.AmountApplied.String()
	}
	return s.IdempGen.GenerateKey(idempotency.ScopePayment, params)
}

func (s *paymentService) buildRegisterResponse(ctx context.Context, p *payment.Payment) (*dto.RegisterPaymentResponse, error) {
	resp := &dto.RegisterPaymentResponse{
		Payment: dto.NewPaymentResponse(p),
	}
	for _, alloc := range p.Allocations {
		inv, err := s.InvoiceRepo.Get(ctx, alloc.InvoiceID)
		if err != nil {
			return nil, err
		}
		resp.Invoices = append(resp.Invoices, newSettlementResponse(inv))
	}
	return resp, nil
}

func newSettlementResponse(inv *invoice.Invoice) *dto.InvoiceSettlementResponse {
	return &dto.InvoiceSettlementResponse{
		InvoiceID:        inv.ID,
		DocumentNumber:   inv.DocumentNumber,
		InvoiceStatus:    inv.InvoiceStatus,
		Total:            inv.Total,
		TotalPaid:        inv.AmountPaid,
		RemainingBalance: inv.GetRemainingAmount(),
	}
}
