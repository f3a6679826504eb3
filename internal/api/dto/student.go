package dto

import (
	"context"
	"time"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/student"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/validator"
)

// CreateStudentRequest registers a student with the billing directory
type CreateStudentRequest struct {
	FirstName    string             `json:"first_name" validate:"required,max=100"`
	LastName     string             `json:"last_name" validate:"required,max=100"`
	Email        string             `json:"email" validate:"required,email"`
	TaxCondition types.TaxCondition `json:"tax_condition" validate:"required"`
}

func (r *CreateStudentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.TaxCondition.Validate()
}

func (r *CreateStudentRequest) ToStudent(ctx context.Context) *student.Student {
	return &student.Student{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STUDENT),
		Code:         types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_STUDENT),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		TaxCondition: r.TaxCondition,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID           string             `json:"id"`
	Code         string             `json:"code"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name"`
	Email        string             `json:"email"`
	TaxCondition types.TaxCondition `json:"tax_condition"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func NewStudentResponse(s *student.Student) *StudentResponse {
	return &StudentResponse{
		ID:           s.ID,
		Code:         s.Code,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		Email:        s.Email,
		TaxCondition: s.TaxCondition,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ListStudentsResponse represents a list of students
type ListStudentsResponse struct {
	Items []*StudentResponse `json:"items"`
	Total int                `json:"total"`
}
