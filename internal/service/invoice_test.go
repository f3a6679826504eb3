package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
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

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceService
	payments PaymentService
	testData struct {
		registered  *student.Student
		endConsumer *student.Student
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

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
	s.service = NewInvoiceService(params)
	s.payments = NewPaymentService(params)

	s.testData.registered = &student.Student{
		ID:           "stud_registered",
		FirstName:    "Carlos",
		LastName:     "Academia",
		Email:        "carlos@example.com",
		TaxCondition: types.TaxConditionRegistered,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StudentRepo.Create(s.GetContext(), s.testData.registered))

	s.testData.endConsumer = &student.Student{
		ID:           "stud_consumer",
		FirstName:    "Lucia",
		LastName:     "Moreno",
		Email:        "lucia@example.com",
		TaxCondition: types.TaxConditionEndConsumer,
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().StudentRepo.Create(s.GetContext(), s.testData.endConsumer))
}

func (s *InvoiceServiceSuite) createRequest(studentID string) *dto.CreateInvoiceRequest {
	return &dto.CreateInvoiceRequest{
		StudentID: studentID,
		LineItems: []dto.CreateLineItemRequest{
			{
				Description: "English B2, March",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(4000),
			},
			{
				Description: "Course materials",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromInt(500),
			},
		},
		BillingPeriod: "2026-03",
		DueDate:       time.Now().UTC().Add(30 * 24 * time.Hour),
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoiceCategoryFollowsTaxCondition() {
	resp, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.registered.ID))
	s.NoError(err)
	s.Equal(types.DocumentCategoryInvoiceA, resp.Category)
	s.Equal("FA-00001", resp.DocumentNumber)
	s.Equal(types.InvoiceStatusPending, resp.InvoiceStatus)

	resp, err = s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.endConsumer.ID))
	s.NoError(err)
	s.Equal(types.DocumentCategoryInvoiceB, resp.Category)
	s.Equal("FB-00001", resp.DocumentNumber)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceComputesTotals() {
	resp, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.endConsumer.ID))
	s.NoError(err)

	s.True(resp.Subtotal.Equal(decimal.NewFromInt(5000)))
	s.True(resp.Total.Equal(decimal.NewFromInt(5000)))
	s.True(resp.TotalPaid.IsZero())
	s.True(resp.Remaining.Equal(decimal.NewFromInt(5000)))
	s.Len(resp.LineItems, 2)
	s.True(resp.LineItems[1].Amount.Equal(decimal.NewFromInt(1000)))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceUnknownStudent() {
	_, err := s.service.CreateInvoice(s.GetContext(), s.createRequest("stud_ghost"))
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestDraftCarriesNoDocumentNumber() {
	req := s.createRequest(s.testData.registered.ID)
	req.Draft = true

	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Empty(resp.DocumentNumber)

	// Draft creation must not consume an invoice number
	next, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.registered.ID))
	s.NoError(err)
	s.Equal("FA-00001", next.DocumentNumber)
}

func (s *InvoiceServiceSuite) TestAuthorizeDraftAssignsNumber() {
	req := s.createRequest(s.testData.registered.ID)
	req.Draft = true
	draft, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)

	resp, err := s.service.AuthorizeInvoice(s.GetContext(), draft.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPending, resp.InvoiceStatus)
	s.Equal("FA-00001", resp.DocumentNumber)

	// Re-authorizing fails
	_, err = s.service.AuthorizeInvoice(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestUpdateAndDeleteDraftOnly() {
	req := s.createRequest(s.testData.endConsumer.ID)
	req.Draft = true
	draft, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)

	updated, err := s.service.UpdateDraftInvoice(s.GetContext(), draft.ID, &dto.UpdateInvoiceRequest{
		LineItems: []dto.CreateLineItemRequest{
			{
				Description: "English B2, March (corrected)",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(3500),
			},
		},
		Description: lo.ToPtr("Corrected draft"),
	})
	s.NoError(err)
	s.True(updated.Total.Equal(decimal.NewFromInt(3500)))
	s.Equal("Corrected draft", updated.Description)

	// Issued invoices are immutable
	issued, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.endConsumer.ID))
	s.NoError(err)

	_, err = s.service.UpdateDraftInvoice(s.GetContext(), issued.ID, &dto.UpdateInvoiceRequest{
		Description: lo.ToPtr("should not apply"),
	})
	s.Error(err)
	s.True(ierr.Is(err, invoice.ErrNotEditable))

	err = s.service.DeleteDraftInvoice(s.GetContext(), issued.ID)
	s.Error(err)
	s.True(ierr.Is(err, invoice.ErrNotEditable))

	// Drafts can be deleted
	s.NoError(s.service.DeleteDraftInvoice(s.GetContext(), draft.ID))
	_, err = s.service.GetInvoice(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestCancelInvoice() {
	issued, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.endConsumer.ID))
	s.NoError(err)

	resp, err := s.service.CancelInvoice(s.GetContext(), issued.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusCancelled, resp.InvoiceStatus)

	// Cancelled invoices accept no payments
	_, err = s.payments.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.endConsumer.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1000),
		InvoiceID:         issued.ID,
	})
	s.Error(err)
	s.True(ierr.Is(err, invoice.ErrAlreadySettled))
}

func (s *InvoiceServiceSuite) TestCancelPartiallyPaidInvoiceRejected() {
	issued, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.endConsumer.ID))
	s.NoError(err)

	_, err = s.payments.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.endConsumer.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(1000),
		InvoiceID:         issued.ID,
	})
	s.NoError(err)

	_, err = s.service.CancelInvoice(s.GetContext(), issued.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestMarkOverdueInvoices() {
	req := s.createRequest(s.testData.endConsumer.ID)
	req.DueDate = time.Now().UTC().Add(-24 * time.Hour)
	overdue, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)

	current, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.endConsumer.ID))
	s.NoError(err)

	flagged, err := s.service.MarkOverdueInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(1, flagged)

	stored, err := s.service.GetInvoice(s.GetContext(), overdue.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, stored.InvoiceStatus)

	stored, err = s.service.GetInvoice(s.GetContext(), current.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPending, stored.InvoiceStatus)

	// Overdue invoices still accept payments
	resp, err := s.payments.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.endConsumer.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(5000),
		InvoiceID:         overdue.ID,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.Invoices[0].InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestListInvoicesNewestFirst() {
	first, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.registered.ID))
	s.NoError(err)
	second, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.registered.ID))
	s.NoError(err)

	resp, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		StudentID: s.testData.registered.ID,
	})
	s.NoError(err)
	s.Equal(2, resp.Total)
	s.Equal(second.ID, resp.Items[0].ID)
	s.Equal(first.ID, resp.Items[1].ID)
}

func (s *InvoiceServiceSuite) TestListInvoicesByStatus() {
	_, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.registered.ID))
	s.NoError(err)

	paid, err := s.service.CreateInvoice(s.GetContext(), s.createRequest(s.testData.registered.ID))
	s.NoError(err)
	_, err = s.payments.RegisterPayment(s.GetContext(), &dto.RegisterPaymentRequest{
		StudentID:         s.testData.registered.ID,
		PaymentMethodType: types.PaymentMethodTypeCash,
		Amount:            decimal.NewFromInt(5000),
		InvoiceID:         paid.ID,
	})
	s.NoError(err)

	resp, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		StudentID:     s.testData.registered.ID,
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusPending},
	})
	s.NoError(err)
	s.Equal(1, resp.Total)
	s.Equal(types.InvoiceStatusPending, resp.Items[0].InvoiceStatus)
}
