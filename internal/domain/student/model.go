package student

import (
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// Student is the billing core's view of a student. Registration, courses and
// attendance live elsewhere; the ledger only needs identity, ownership and
// the tax condition that selects the invoice category.
type Student struct {
	ID string `db:"id" json:"id"`
	// Code is the short human-facing identifier staff use on receipts and
	// class rosters
	Code         string             `db:"code" json:"code"`
	FirstName    string             `db:"first_name" json:"first_name"`
	LastName     string             `db:"last_name" json:"last_name"`
	Email        string             `db:"email" json:"email"`
	TaxCondition types.TaxCondition `db:"tax_condition" json:"tax_condition"`

	types.BaseModel
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (s *Student) Validate() error {
	if s.FirstName == "" || s.LastName == "" {
		return ierr.NewError("student name is required").
			WithHint("First name and last name must be set").
			Mark(ierr.ErrValidation)
	}
	if err := s.TaxCondition.Validate(); err != nil {
		return err
	}
	return nil
}
