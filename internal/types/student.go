package types

import (
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
)

// TaxCondition is the payer's standing with the tax authority. It determines
// which invoice category (and therefore which numbering stream) the payer
// receives.
type TaxCondition string

const (
	// TaxConditionRegistered is a VAT-registered payer (responsable inscripto)
	TaxConditionRegistered TaxCondition = "REGISTERED"
	// TaxConditionEndConsumer is a final consumer without VAT registration
	TaxConditionEndConsumer TaxCondition = "END_CONSUMER"
)

func (t TaxCondition) String() string {
	return string(t)
}

func (t TaxCondition) Validate() error {
	switch t {
	case TaxConditionRegistered, TaxConditionEndConsumer:
		return nil
	}
	return ierr.NewError("invalid tax condition").
		WithHintf("Tax condition must be %q or %q", TaxConditionRegistered, TaxConditionEndConsumer).
		WithReportableDetails(map[string]any{
			"tax_condition": string(t),
		}).
		Mark(ierr.ErrValidation)
}

// InvoiceCategory returns the document category for invoices issued to a
// payer with this tax condition.
func (t TaxCondition) InvoiceCategory() DocumentCategory {
	if t == TaxConditionRegistered {
		return DocumentCategoryInvoiceA
	}
	return DocumentCategoryInvoiceB
}
