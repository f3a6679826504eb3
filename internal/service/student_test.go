package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/dto"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/idempotency"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/testutil"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type StudentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service StudentService
}

func TestStudentService(t *testing.T) {
	suite.Run(t, new(StudentServiceSuite))
}

func (s *StudentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewStudentService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		Cache:        s.GetCache(),
		IdempGen:     idempotency.NewGenerator(),
		StudentRepo:  s.GetStores().StudentRepo,
		InvoiceRepo:  s.GetStores().InvoiceRepo,
		PaymentRepo:  s.GetStores().PaymentRepo,
		SequenceRepo: s.GetStores().SequenceRepo,
	})
}

func (s *StudentServiceSuite) TestCreateStudentAssignsCode() {
	resp, err := s.service.CreateStudent(s.GetContext(), &dto.CreateStudentRequest{
		FirstName:    "Lucia",
		LastName:     "Fernandez",
		Email:        "lucia@example.com",
		TaxCondition: types.TaxConditionRegistered,
	})
	s.NoError(err)
	s.NotEmpty(resp.Code)
	s.True(strings.HasPrefix(resp.Code, types.SHORT_ID_PREFIX_STUDENT))
	s.LessOrEqual(len(resp.Code), 12)

	stored, err := s.GetStores().StudentRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(resp.Code, stored.Code)
}

func (s *StudentServiceSuite) TestCreateStudentCodesAreUnique() {
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		resp, err := s.service.CreateStudent(s.GetContext(), &dto.CreateStudentRequest{
			FirstName:    "Carlos",
			LastName:     "Lopez",
			Email:        "carlos" + string(rune('a'+i)) + "@example.com",
			TaxCondition: types.TaxConditionEndConsumer,
		})
		s.NoError(err)
		s.False(seen[resp.Code], "code %s issued twice", resp.Code)
		seen[resp.Code] = true
	}
}

func (s *StudentServiceSuite) TestCreateStudentRejectsInvalidTaxCondition() {
	_, err := s.service.CreateStudent(s.GetContext(), &dto.CreateStudentRequest{
		FirstName:    "Lucia",
		LastName:     "Fernandez",
		Email:        "lucia@example.com",
		TaxCondition: types.TaxCondition("MONOTRIBUTO"),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *StudentServiceSuite) TestCreateStudentRejectsBadEmail() {
	_, err := s.service.CreateStudent(s.GetContext(), &dto.CreateStudentRequest{
		FirstName:    "Lucia",
		LastName:     "Fernandez",
		Email:        "not-an-email",
		TaxCondition: types.TaxConditionRegistered,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
