package types

import (
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
)

// PaymentStatus represents the status of a payment record. Payments are
// immutable once registered; the only later transition is a void.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusVoided    PaymentStatus = "VOIDED"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusSucceeded,
		PaymentStatusVoided,
	}
	for _, status := range allowed {
		if s == status {
			return nil
		}
	}
	return ierr.NewError("invalid payment status").
		WithHint("Invalid payment status").
		WithReportableDetails(map[string]any{
			"status":  s,
			"allowed": allowed,
		}).
		Mark(ierr.ErrValidation)
}

// PaymentMethodType represents how the money was received
type PaymentMethodType string

const (
	PaymentMethodTypeCash          PaymentMethodType = "CASH"
	PaymentMethodTypeCard          PaymentMethodType = "CARD"
	PaymentMethodTypeBankTransfer  PaymentMethodType = "BANK_TRANSFER"
	PaymentMethodTypeDigitalWallet PaymentMethodType = "DIGITAL_WALLET"
	PaymentMethodTypeOther         PaymentMethodType = "OTHER"
)

func (t PaymentMethodType) String() string {
	return string(t)
}

func (t PaymentMethodType) Validate() error {
	allowed := []PaymentMethodType{
		PaymentMethodTypeCash,
		PaymentMethodTypeCard,
		PaymentMethodTypeBankTransfer,
		PaymentMethodTypeDigitalWallet,
		PaymentMethodTypeOther,
	}
	for _, method := range allowed {
		if t == method {
			return nil
		}
	}
	return ierr.NewError("invalid payment method type").
		WithHint("Invalid payment method type").
		WithReportableDetails(map[string]any{
			"payment_method_type": t,
			"allowed":             allowed,
		}).
		Mark(ierr.ErrValidation)
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	StudentID     string         `json:"student_id,omitempty" form:"student_id"`
	InvoiceID     string         `json:"invoice_id,omitempty" form:"invoice_id"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty" form:"payment_status"`
}
