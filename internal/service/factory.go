package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/cache"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/config"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/payment"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/sequence"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/student"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/idempotency"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/postgres"
)

// ServiceParams bundles the dependencies every service constructor needs.
// Services pick the fields they use; wiring happens once in the fx container
// and in the test suite setup.
type ServiceParams struct {
	Logger    *logger.Logger
	Config    *config.Configuration
	DB        postgres.IClient
	Cache     cache.Cache
	Validator *validator.Validate

	IdempGen *idempotency.Generator

	StudentRepo  student.Repository
	InvoiceRepo  invoice.Repository
	PaymentRepo  payment.Repository
	SequenceRepo sequence.Repository
}

// NewServiceParams assembles the service parameter bundle for the fx
// container
func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	db postgres.IClient,
	cacheClient cache.Cache,
	validate *validator.Validate,
	studentRepo student.Repository,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
	sequenceRepo sequence.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:       logger,
		Config:       cfg,
		DB:           db,
		Cache:        cacheClient,
		Validator:    validate,
		IdempGen:     idempotency.NewGenerator(),
		StudentRepo:  studentRepo,
		InvoiceRepo:  invoiceRepo,
		PaymentRepo:  paymentRepo,
		SequenceRepo: sequenceRepo,
	}
}
