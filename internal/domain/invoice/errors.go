package invoice

import (
	"errors"
)

var (
	// ErrInvoiceNotFound is returned when an invoice is not found
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrAlreadySettled is returned when a payment targets a paid or
	// cancelled invoice
	ErrAlreadySettled = errors.New("invoice already settled")

	// ErrPaymentExceedsBalance is returned when an allocation would push the
	// total paid above the invoice total
	ErrPaymentExceedsBalance = errors.New("payment exceeds invoice balance")

	// ErrNotEditable is returned when editing or deleting an invoice that has
	// left the draft state
	ErrNotEditable = errors.New("invoice not editable")

	// ErrOwnershipMismatch is returned when an invoice belongs to a different
	// student than the payment
	ErrOwnershipMismatch = errors.New("invoice ownership mismatch")
)
