package types

import (
	"fmt"

	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
)

// DocumentCategory identifies one sequential numbering stream. Each category
// owns an independent counter and a fixed, externally visible number format.
type DocumentCategory string

const (
	// DocumentCategoryInvoiceA numbers invoices issued to payers registered
	// for VAT (responsable inscripto): FA-00001
	DocumentCategoryInvoiceA DocumentCategory = "invoice_A"
	// DocumentCategoryInvoiceB numbers invoices issued to end consumers: FB-00001
	DocumentCategoryInvoiceB DocumentCategory = "invoice_B"
	// DocumentCategoryReceipt numbers payment receipts: RC-00001-00000001
	DocumentCategoryReceipt DocumentCategory = "receipt"
)

// PointOfSaleID is the fixed point-of-sale field embedded in receipt numbers.
// The school operates a single point of sale.
const PointOfSaleID = "00001"

// documentNumberFormats maps each category to its printf layout. Formats are
// persisted on legal documents and must never change for existing categories.
var documentNumberFormats = map[DocumentCategory]string{
	DocumentCategoryInvoiceA: "FA-%05d",
	DocumentCategoryInvoiceB: "FB-%05d",
	DocumentCategoryReceipt:  "RC-" + PointOfSaleID + "-%08d",
}

func (c DocumentCategory) String() string {
	return string(c)
}

func (c DocumentCategory) Validate() error {
	if _, ok := documentNumberFormats[c]; !ok {
		return ierr.NewError("invalid document category").
			WithHintf("Document category must be one of %q, %q, %q",
				DocumentCategoryInvoiceA, DocumentCategoryInvoiceB, DocumentCategoryReceipt).
			WithReportableDetails(map[string]any{
				"category": string(c),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// FormatDocumentNumber renders the human-readable document number for the
// given category and sequence value. Pure function: same inputs always yield
// the same string.
func FormatDocumentNumber(category DocumentCategory, sequence int64) (string, error) {
	format, ok := documentNumberFormats[category]
	if !ok {
		return "", category.Validate()
	}
	return fmt.Sprintf(format, sequence), nil
}
