package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/testutil"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type NumberingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service NumberingService
}

func TestNumberingService(t *testing.T) {
	suite.Run(t, new(NumberingServiceSuite))
}

func (s *NumberingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewNumberingService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		SequenceRepo: s.GetStores().SequenceRepo,
	})
}

func (s *NumberingServiceSuite) TestFirstIssuedNumberIsOne() {
	number, err := s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceA)
	s.NoError(err)
	s.Equal("FA-00001", number)

	number, err = s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceB)
	s.NoError(err)
	s.Equal("FB-00001", number)

	number, err = s.service.NextReceiptNumber(s.GetContext())
	s.NoError(err)
	s.Equal("RC-00001-00000001", number)
}

func (s *NumberingServiceSuite) TestCategoriesAdvanceIndependently() {
	for i := 0; i < 3; i++ {
		_, err := s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceA)
		s.NoError(err)
	}

	number, err := s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceB)
	s.NoError(err)
	s.Equal("FB-00001", number)

	number, err = s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceA)
	s.NoError(err)
	s.Equal("FA-00004", number)
}

func (s *NumberingServiceSuite) TestNextInvoiceNumberSelectsCategoryFromTaxCondition() {
	number, category, err := s.service.NextInvoiceNumber(s.GetContext(), types.TaxConditionRegistered)
	s.NoError(err)
	s.Equal(types.DocumentCategoryInvoiceA, category)
	s.Equal("FA-00001", number)

	number, category, err = s.service.NextInvoiceNumber(s.GetContext(), types.TaxConditionEndConsumer)
	s.NoError(err)
	s.Equal(types.DocumentCategoryInvoiceB, category)
	s.Equal("FB-00001", number)
}

func (s *NumberingServiceSuite) TestCurrentValueDoesNotConsume() {
	value, err := s.service.CurrentValue(s.GetContext(), types.DocumentCategoryReceipt)
	s.NoError(err)
	s.Equal(int64(0), value)

	_, err = s.service.NextReceiptNumber(s.GetContext())
	s.NoError(err)

	for i := 0; i < 5; i++ {
		value, err = s.service.CurrentValue(s.GetContext(), types.DocumentCategoryReceipt)
		s.NoError(err)
		s.Equal(int64(1), value)
	}
}

func (s *NumberingServiceSuite) TestResetCounter() {
	for i := 0; i < 4; i++ {
		_, err := s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceA)
		s.NoError(err)
	}

	s.NoError(s.service.ResetCounter(s.GetContext(), types.DocumentCategoryInvoiceA))

	number, err := s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceA)
	s.NoError(err)
	s.Equal("FA-00001", number)
}

func (s *NumberingServiceSuite) TestUnknownCategoryRejected() {
	_, err := s.service.NextNumber(s.GetContext(), types.DocumentCategory("credit_note"))
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.CurrentValue(s.GetContext(), types.DocumentCategory(""))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *NumberingServiceSuite) TestConcurrentIssuanceYieldsUniqueSequence() {
	const workers = 50

	var wg sync.WaitGroup
	results := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := s.service.NextNumber(s.GetContext(), types.DocumentCategoryInvoiceB)
			s.NoError(err)
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, workers)
	for number := range results {
		s.False(seen[number], "duplicate document number %s", number)
		seen[number] = true
	}
	s.Len(seen, workers)

	value, err := s.service.CurrentValue(s.GetContext(), types.DocumentCategoryInvoiceB)
	s.NoError(err)
	s.Equal(int64(workers), value)
}
