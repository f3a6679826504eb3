package service

import (
	"context"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// NumberingService issues sequential document numbers. Each document category
// owns an independent counter; numbers are rendered with the category's fixed
// format and are never reused, reordered or recycled.
//
// Callers that must not burn a number on failure (the payment ledger, invoice
// authorization) invoke these methods inside a store transaction so the
// increment commits or rolls back together with the document it numbers.
type NumberingService interface {
	// NextNumber increments the category's counter and returns the formatted
	// document number.
	NextNumber(ctx context.Context, category types.DocumentCategory) (string, error)

	// NextInvoiceNumber selects the invoice category from the student's tax
	// condition and issues the next number in that stream.
	NextInvoiceNumber(ctx context.Context, taxCondition types.TaxCondition) (string, types.DocumentCategory, error)

	// NextReceiptNumber issues the next receipt number.
	NextReceiptNumber(ctx context.Context) (string, error)

	// CurrentValue returns the counter's value without consuming a number.
	// Returns 0 for a category that has never issued.
	CurrentValue(ctx context.Context, category types.DocumentCategory) (int64, error)

	// ResetCounter sets the counter back to zero. Administrative use only;
	// previously issued documents keep their numbers.
	ResetCounter(ctx context.Context, category types.DocumentCategory) error
}

type numberingService struct {
	ServiceParams
}

func NewNumberingService(params ServiceParams) NumberingService {
	return &numberingService{ServiceParams: params}
}

func (s *numberingService) NextNumber(ctx context.Context, category types.DocumentCategory) (string, error) {
	if err := category.Validate(); err != nil {
		return "", err
	}

	seq, err := s.SequenceRepo.Next(ctx, category)
	if err != nil {
		return "", err
	}

	number, err := types.FormatDocumentNumber(category, seq)
	if err != nil {
		return "", err
	}

	s.Logger.Debugw("issued document number",
		"category", category,
		"sequence", seq,
		"document_number", number)
	return number, nil
}

func (s *numberingService) NextInvoiceNumber(ctx context.Context, taxCondition types.TaxCondition) (string, types.DocumentCategory, error) {
	if err := taxCondition.Validate(); err != nil {
		return "", "", err
	}

	category := taxCondition.InvoiceCategory()
	number, err := s.NextNumber(ctx, category)
	if err != nil {
		return "", "", err
	}
	return number, category, nil
}

func (s *numberingService) NextReceiptNumber(ctx context.Context) (string, error) {
	return s.NextNumber(ctx, types.DocumentCategoryReceipt)
}

func (s *numberingService) CurrentValue(ctx context.Context, category types.DocumentCategory) (int64, error) {
	if err := category.Validate(); err != nil {
		return 0, err
	}
	return s.SequenceRepo.Current(ctx, category)
}

func (s *numberingService) ResetCounter(ctx context.Context, category types.DocumentCategory) error {
	if err := category.Validate(); err != nil {
		return err
	}

	s.Logger.Warnw("resetting document counter", "category", category)
	return s.SequenceRepo.Reset(ctx, category)
}
