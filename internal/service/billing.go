package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/dto"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// BillingService is the read-side reporting facade over the ledger and the
// invoice store. It never writes.
type BillingService interface {
	// GetStudentPayments returns a student's payment history, newest first.
	// A student with no recorded payments is reported as not found.
	GetStudentPayments(ctx context.Context, studentID string) (*dto.StudentPaymentHistoryResponse, error)

	// GetOutstandingBalance sums what the student still owes across all open
	// invoices.
	GetOutstandingBalance(ctx context.Context, studentID string) (*dto.OutstandingBalanceResponse, error)
}

type billingService struct {
	ServiceParams
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{ServiceParams: params}
}

func (s *billingService) GetStudentPayments(ctx context.Context, studentID string) (*dto.StudentPaymentHistoryResponse, error) {
	exists, err := s.StudentRepo.Exists(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ierr.NewError("student not found").
			WithHintf("No student with id %s", studentID).
			Mark(ierr.ErrNotFound)
	}

	payments, err := s.PaymentRepo.List(ctx, &types.PaymentFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, ierr.NewError("no payments found for student").
			WithHintf("Student %s has no recorded payments", studentID).
			WithReportableDetails(map[string]any{
				"student_id": studentID,
			}).
			Mark(ierr.ErrNotFound)
	}

	resp := &dto.StudentPaymentHistoryResponse{
		StudentID: studentID,
		Payments:  make([]*dto.PaymentResponse, 0, len(payments)),
		Total:     len(payments),
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, dto.NewPaymentResponse(p))
	}
	return resp, nil
}

func (s *billingService) GetOutstandingBalance(ctx context.Context, studentID string) (*dto.OutstandingBalanceResponse, error) {
	exists, err := s.StudentRepo.Exists(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ierr.NewError("student not found").
			WithHintf("No student with id %s", studentID).
			Mark(ierr.ErrNotFound)
	}

	open, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{
		StudentID: studentID,
		InvoiceStatus: []types.InvoiceStatus{
			types.InvoiceStatusPending,
			types.InvoiceStatusPartiallyPaid,
			types.InvoiceStatusOverdue,
		},
	})
	if err != nil {
		return nil, err
	}

	paidCount, err := s.InvoiceRepo.Count(ctx, &types.InvoiceFilter{
		StudentID:     studentID,
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusPaid},
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.OutstandingBalanceResponse{
		StudentID:         studentID,
		OutstandingAmount: decimal.Zero,
		UnsettledInvoices: make([]*dto.InvoiceResponse, 0, len(open)),
		PendingCount:      len(open),
		PaidCount:         paidCount,
	}
	for _, inv := range open {
		resp.OutstandingAmount = resp.OutstandingAmount.Add(inv.GetRemainingAmount())
		resp.UnsettledInvoices = append(resp.UnsettledInvoices, dto.NewInvoiceResponse(inv))
	}
	return resp, nil
}
