package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/dto"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/student"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/idempotency"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/testutil"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service   PaymentService
	numbering NumberingService
	testData  struct {
		student      *student.Student
		otherStudent *student.Student
		invoice      *invoice.Invoice
	}
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *PaymentServiceSuite) setupService() {
	params := ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		Cache:        s.GetCache(),
		IdempGen:     idempotency.NewGenerator(),
		StudentRepo:  s.GetStores().StudentRepo,
		InvoiceRepo:  s.GetStores().InvoiceRepo,
		PaymentRepo:  s.GetStores().PaymentRepo,
		SequenceRepo: s.GetStores().SequenceRepo,
	}
	s.service = NewPaymentService(params)
	s.numbering = NewNumberingService(params)
}

func (s *PaymentServiceSuite) setupTestData() {
	s.testData.student = &student.Student{
		ID:           "stud_test_payment",
		FirstName:    "Maria",
		LastName:     "Gonzalez",
		Email:        "maria@example.com",
		TaxCondition: types.TaxConditionEndConsumer,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StudentRepo.Create(s.GetContext(), s.testData.student))

	s.testData.otherStudent = &student.Student{
		ID:           "stud_other",
		FirstName:    "Juan",
		LastName:     "Perez",
		Email:        "juan@example.com",
		TaxCondition: types.TaxConditionRegistered,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StudentRepo.Create(s.GetContext(), s.testData.otherStudent))

	s.testData.invoice = s.createInvoice("inv_test_payment", s.testData.student.ID, 5000)
}

func (s *PaymentServiceSuite) createInvoice(id, studentID string, total int64) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:             id,
		StudentID:      studentID,
		DocumentNumber: "FB-" + id,
		Category:       types.DocumentCategoryInvoiceB,
		InvoiceStatus:  types.InvoiceStatusPending,
		Subtotal:       decimal.NewFromInt(total),
		Tax:            decimal.Zero,
		Total:          decimal.NewFromInt(total),
		AmountPaid:     decimal.Zero,
		BillingPeriod:  "2026-03",
		IssuedAt:       time.Now().UTC(),
		DueDate:        time.Now().UTC().Add(30 * 24 * time.Hour),
		Version:        1,
		LineItems: []*invoice.LineItem{
			{
				ID:          id + "_line",
				InvoiceID:   id,
				Description: "Monthly course fee",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(total),
				Amount:      decimal.NewFromInt(total),
				BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
			},
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.CreateWithLineItems(s.GetContext(), inv))
	return inv
}

func (s *PaymentServiceSuite) receiptCounter() int64 {
	value, err := s.numbering.CurrentValue(s.GetContext(), types.DocumentCategoryReceipt)
	s.NoError(err)
	return value
}

func (s *PaymentServiceSuite) TestFullPaymentSettlesInvoice() {
	resp, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(5000),
		InvoiceID:         s.testData.invoice.ID,
	})
	s.NoError(err)
	s.NotNil(resp)

	s.Equal("RC-00001-00000001", resp.Payment.ReceiptNumber)
	s.Equal(types.PaymentStatusSucceeded, resp.Payment.PaymentStatus)
	s.Len(resp.Invoices, 1)
	s.Equal(types.InvoiceStatusPaid, resp.Invoices[0].InvoiceStatus)
	s.True(resp.Invoices[0].RemainingBalance.IsZero())

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, stored.InvoiceStatus)
	s.NotNil(stored.PaidAt)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(5000)))
}

func (s *PaymentServiceSuite) TestSequentialPartialPayments() {
	inv := s.createInvoice("inv_partial", s.testData.student.ID, 4000)

	steps := []struct {
		amount    int64
		remaining int64
		status    types.InvoiceStatus
	}{
		{1500, 2500, types.InvoiceStatusPartiallyPaid},
		{1500, 1000, types.InvoiceStatusPartiallyPaid},
		{1000, 0, types.InvoiceStatusPaid},
	}

	for i, step := range steps {
		resp, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
			StudentID:         s.testData.student.ID,
			PaymentMethodType: types.PaymentMethodTypeCash,
			Amount:            decimal.NewFromInt(step.amount),
			InvoiceID:         inv.ID,
		})
		s.NoError(err, "payment %d", i+1)
		s.Equal(step.status, resp.Invoices[0].InvoiceStatus)
		s.True(resp.Invoices[0].RemainingBalance.Equal(decimal.NewFromInt(step.remaining)),
			"payment %d: expected remaining %d, got %s", i+1, step.remaining, resp.Invoices[0].RemainingBalance)
	}

	// Three payments, three receipt numbers
	s.Equal(int64(3), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestOverpaymentRejected() {
	inv := s.createInvoice("inv_overpay", s.testData.student.ID, 3000)

	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCard,
		Amount:            decimal.NewFromInt(3500),
		InvoiceID:         inv.ID,
	})
	s.Error(err)
	s.True(ierr.Is(err, invoice.ErrPaymentExceedsBalance))

	// Invoice untouched, no receipt number consumed
	stored, gerr := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(gerr)
	s.Equal(types.InvoiceStatusPending, stored.InvoiceStatus)
	s.True(stored.AmountPaid.IsZero())
	s.True(stored.GetRemainingAmount().Equal(decimal.NewFromInt(3000)))
	s.Equal(int64(0), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestMultiInvoicePaymentSettlesBoth() {
	invA := s.createInvoice("inv_multi_a", s.testData.student.ID, 2000)
	invB := s.createInvoice("inv_multi_b", s.testData.student.ID, 3000)

	resp, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeBankTransfer,
		Allocations: []dto.AllocationRequest{
			{InvoiceID: invA.ID, Amount: decimal.NewFromInt(2000)},
			{InvoiceID: invB.ID, Amount: decimal.NewFromInt(3000)},
		},
	})
	s.NoError(err)

	s.True(resp.Payment.Amount.Equal(decimal.NewFromInt(5000)))
	s.Len(resp.Payment.Allocations, 2)
	s.Len(resp.Invoices, 2)
	for _, settled := range resp.Invoices {
		s.Equal(types.InvoiceStatusPaid, settled.InvoiceStatus)
		s.True(settled.RemainingBalance.IsZero())
	}

	// One payment, one receipt
	s.Equal("RC-00001-00000001", resp.Payment.ReceiptNumber)
	s.Equal(int64(1), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestCrossStudentAllocationRejected() {
	mine := s.createInvoice("inv_mine", s.testData.student.ID, 1000)
	theirs := s.createInvoice("inv_theirs", s.testData.otherStudent.ID, 1000)

	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Allocations: []dto.AllocationRequest{
			{InvoiceID: mine.ID, Amount: decimal.NewFromInt(1000)},
			{InvoiceID: theirs.ID, Amount: decimal.NewFromInt(1000)},
		},
	})
	s.Error(err)
	s.True(ierr.Is(err, invoice.ErrOwnershipMismatch))
	s.True(ierr.IsPermissionDenied(err))

	// Nothing applied anywhere, no receipt number consumed
	for _, id := range []string{mine.ID, theirs.ID} {
		stored, gerr := s.GetStores().InvoiceRepo.Get(s.GetContext(), id)
		s.NoError(gerr)
		s.True(stored.AmountPaid.IsZero())
		s.Equal(types.InvoiceStatusPending, stored.InvoiceStatus)
	}
	s.Equal(int64(0), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestAllOrNothingOnMidListFailure() {
	invA := s.createInvoice("inv_aon_a", s.testData.student.ID, 2000)
	invB := s.createInvoice("inv_aon_b", s.testData.student.ID, 1000)

	// Second allocation exceeds its invoice balance; the first must not be
	// applied either
	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Allocations: []dto.AllocationRequest{
			{InvoiceID: invA.ID, Amount: decimal.NewFromInt(2000)},
			{InvoiceID: invB.ID, Amount: decimal.NewFromInt(1500)},
		},
	})
	s.Error(err)
	s.True(ierr.Is(err, invoice.ErrPaymentExceedsBalance))

	storedA, gerr := s.GetStores().InvoiceRepo.Get(s.GetContext(), invA.ID)
	s.NoError(gerr)
	s.True(storedA.AmountPaid.IsZero())
	s.Equal(types.InvoiceStatusPending, storedA.InvoiceStatus)

	payments, lerr := s.GetStores().PaymentRepo.List(s.GetContext(), &types.PaymentFilter{
		StudentID: s.testData.student.ID,
	})
	s.NoError(lerr)
	s.Empty(payments)
	s.Equal(int64(0), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestPaymentToSettledInvoiceRejected() {
	inv := s.createInvoice("inv_settled", s.testData.student.ID, 1000)

	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1000),
		InvoiceID:         inv.ID,
	})
	s.NoError(err)

	_, err = s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(100),
		InvoiceID:         inv.ID,
	})
	s.Error(err)
	s.True(ierr.Is(err, invoice.ErrAlreadySettled))
	s.Equal(int64(1), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestDuplicateInvoiceInAllocationsRejected() {
	inv := s.createInvoice("inv_dup", s.testData.student.ID, 2000)

	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Allocations: []dto.AllocationRequest{
			{InvoiceID: inv.ID, Amount: decimal.NewFromInt(500)},
			{InvoiceID: inv.ID, Amount: decimal.NewFromInt(500)},
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestAmountAllocationMismatchRejected() {
	inv := s.createInvoice("inv_mismatch", s.testData.student.ID, 2000)

	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1000),
		Allocations: []dto.AllocationRequest{
			{InvoiceID: inv.ID, Amount: decimal.NewFromInt(700)},
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestUnknownStudentRejected() {
	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         "stud_ghost",
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(100),
		InvoiceID:         s.testData.invoice.ID,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
	s.Equal(int64(0), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestRepeatedKeylessPaymentsAreDistinct() {
	inv := s.createInvoice("inv_repeat", s.testData.student.ID, 4000)

	// Two identical payments without idempotency keys are two payments.
	// Nothing may collapse them into one.
	first, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1500),
		InvoiceID:         inv.ID,
	})
	s.NoError(err)

	second, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1500),
		InvoiceID:         inv.ID,
	})
	s.NoError(err)

	s.NotEqual(first.Payment.ID, second.Payment.ID)
	s.Equal("RC-00001-00000001", first.Payment.ReceiptNumber)
	s.Equal("RC-00001-00000002", second.Payment.ReceiptNumber)

	stored, gerr := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(gerr)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(3000)))
	s.True(stored.GetRemainingAmount().Equal(decimal.NewFromInt(1000)))
	s.Equal(types.InvoiceStatusPartiallyPaid, stored.InvoiceStatus)

	payments, lerr := s.GetStores().PaymentRepo.List(s.GetContext(), &types.PaymentFilter{
		StudentID: s.testData.student.ID,
	})
	s.NoError(lerr)
	s.Len(payments, 2)
	s.Equal(int64(2), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestIdempotencyKeyReuseWithDifferentContentRejected() {
	inv := s.createInvoice("inv_key_reuse", s.testData.student.ID, 4000)

	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1000),
		InvoiceID:         inv.ID,
		IdempotencyKey:    "idem_reuse_key",
	})
	s.NoError(err)

	_, err = s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(500),
		InvoiceID:         inv.ID,
		IdempotencyKey:    "idem_reuse_key",
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	// The original payment stands; the conflicting retry applied nothing
	stored, gerr := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(gerr)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(1000)))
	s.Equal(int64(1), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestIdempotentReplayReturnsOriginalReceipt() {
	req := &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(2000),
		InvoiceID:         s.testData.invoice.ID,
		IdempotencyKey:    "idem_test_key",
	}

	first, err := s.service.RegisterPayment(s.GetContext(), req)
	s.NoError(err)

	second, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(2000),
		InvoiceID:         s.testData.invoice.ID,
		IdempotencyKey:    "idem_test_key",
	})
	s.NoError(err)

	s.Equal(first.Payment.ID, second.Payment.ID)
	s.Equal(first.Payment.ReceiptNumber, second.Payment.ReceiptNumber)

	// The retry applied nothing and consumed no receipt number
	stored, gerr := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(gerr)
	s.True(stored.AmountPaid.Equal(decimal.NewFromInt(2000)))
	s.Equal(int64(1), s.receiptCounter())
}

func (s *PaymentServiceSuite) TestVoidPaymentRestoresBalances() {
	resp, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(5000),
		InvoiceID:         s.testData.invoice.ID,
	})
	s.NoError(err)

	voided, err := s.service.VoidPayment(s.GetContext(), resp.Payment.ID, &dto.VoidPaymentRequest{
		Reason: "registered against the wrong student",
	})
	s.NoError(err)
	s.Equal(types.PaymentStatusVoided, voided.PaymentStatus)
	s.NotNil(voided.VoidedAt)

	stored, gerr := s.GetStores().InvoiceRepo.Get(s.GetContext(), s.testData.invoice.ID)
	s.NoError(gerr)
	s.Equal(types.InvoiceStatusPending, stored.InvoiceStatus)
	s.True(stored.AmountPaid.IsZero())

	// Voiding twice fails
	_, err = s.service.VoidPayment(s.GetContext(), resp.Payment.ID, nil)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestListPaymentsNewestFirst() {
	invA := s.createInvoice("inv_list_a", s.testData.student.ID, 1000)
	invB := s.createInvoice("inv_list_b", s.testData.student.ID, 1000)

	early := time.Now().UTC().Add(-time.Hour)
	late := time.Now().UTC()

	_, err := s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1000),
		InvoiceID:         invA.ID,
		PaymentDate:       &early,
	})
	s.NoError(err)

	_, err = s.service.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.student.ID,
		PaymentMethodType: types.PaymentMethodTypeCard,
		Amount:            decimal.NewFromInt(1000),
		InvoiceID:         invB.ID,
		PaymentDate:       &late,
	})
	s.NoError(err)

	resp, err := s.service.ListPayments(s.GetContext(), &types.PaymentFilter{
		StudentID: s.testData.student.ID,
	})
	s.NoError(err)
	s.Equal(2, resp.Total)
	s.Equal(types.PaymentMethodTypeCard, resp.Items[0].PaymentMethodType)
	s.Equal(types.PaymentMethodTypeCash, resp.Items[1].PaymentMethodType)
}
