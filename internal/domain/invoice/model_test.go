package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

func newTestInvoice(total int64) *Invoice {
	return &Invoice{
		ID:             "inv_test",
		StudentID:      "stud_test",
		DocumentNumber: "FB-00001",
		Category:       types.DocumentCategoryInvoiceB,
		InvoiceStatus:  types.InvoiceStatusPending,
		Subtotal:       decimal.NewFromInt(total),
		Tax:            decimal.Zero,
		Total:          decimal.NewFromInt(total),
		AmountPaid:     decimal.Zero,
		Version:        1,
	}
}

func TestRecordPaymentFullSettlement(t *testing.T) {
	inv := newTestInvoice(5000)

	err := inv.RecordPayment(decimal.NewFromInt(5000))
	assert.NoError(t, err)
	assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
	assert.NotNil(t, inv.PaidAt)
	assert.True(t, inv.GetRemainingAmount().IsZero())
}

func TestRecordPaymentPartial(t *testing.T) {
	inv := newTestInvoice(4000)

	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(1500)))
	assert.Equal(t, types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)
	assert.Nil(t, inv.PaidAt)
	assert.True(t, inv.GetRemainingAmount().Equal(decimal.NewFromInt(2500)))

	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(1500)))
	assert.True(t, inv.GetRemainingAmount().Equal(decimal.NewFromInt(1000)))

	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(1000)))
	assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
	assert.True(t, inv.GetRemainingAmount().IsZero())
}

func TestRecordPaymentOverpayment(t *testing.T) {
	inv := newTestInvoice(3000)

	err := inv.RecordPayment(decimal.NewFromInt(3500))
	assert.Error(t, err)
	assert.True(t, ierr.Is(err, ErrPaymentExceedsBalance))

	// Rejection leaves the invoice untouched
	assert.Equal(t, types.InvoiceStatusPending, inv.InvoiceStatus)
	assert.True(t, inv.AmountPaid.IsZero())
	assert.True(t, inv.GetRemainingAmount().Equal(decimal.NewFromInt(3000)))
}

func TestRecordPaymentOverpaymentAfterPartial(t *testing.T) {
	inv := newTestInvoice(3000)
	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(2000)))

	err := inv.RecordPayment(decimal.NewFromInt(1500))
	assert.Error(t, err)
	assert.True(t, ierr.Is(err, ErrPaymentExceedsBalance))
	assert.True(t, inv.GetRemainingAmount().Equal(decimal.NewFromInt(1000)))
}

func TestRecordPaymentOnSettledInvoice(t *testing.T) {
	inv := newTestInvoice(1000)
	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(1000)))

	err := inv.RecordPayment(decimal.NewFromInt(1))
	assert.Error(t, err)
	assert.True(t, ierr.Is(err, ErrAlreadySettled))
}

func TestRecordPaymentOnCancelledInvoice(t *testing.T) {
	inv := newTestInvoice(1000)
	inv.InvoiceStatus = types.InvoiceStatusCancelled

	err := inv.RecordPayment(decimal.NewFromInt(500))
	assert.Error(t, err)
	assert.True(t, ierr.Is(err, ErrAlreadySettled))
}

func TestRecordPaymentOnOverdueInvoice(t *testing.T) {
	inv := newTestInvoice(1000)
	inv.InvoiceStatus = types.InvoiceStatusOverdue

	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(1000)))
	assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
}

func TestCanApplyPaymentDoesNotMutate(t *testing.T) {
	inv := newTestInvoice(2000)

	assert.NoError(t, inv.CanApplyPayment(decimal.NewFromInt(2000)))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.Equal(t, types.InvoiceStatusPending, inv.InvoiceStatus)

	assert.Error(t, inv.CanApplyPayment(decimal.NewFromInt(2001)))
	assert.True(t, inv.AmountPaid.IsZero())
}

func TestRevertPayment(t *testing.T) {
	inv := newTestInvoice(2000)
	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(2000)))
	assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)

	assert.NoError(t, inv.RevertPayment(decimal.NewFromInt(2000)))
	assert.Equal(t, types.InvoiceStatusPending, inv.InvoiceStatus)
	assert.Nil(t, inv.PaidAt)
	assert.True(t, inv.AmountPaid.IsZero())
}

func TestRevertPaymentPartial(t *testing.T) {
	inv := newTestInvoice(3000)
	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(1000)))
	assert.NoError(t, inv.RecordPayment(decimal.NewFromInt(1000)))

	assert.NoError(t, inv.RevertPayment(decimal.NewFromInt(1000)))
	assert.Equal(t, types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)
	assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(1000)))

	err := inv.RevertPayment(decimal.NewFromInt(5000))
	assert.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}
