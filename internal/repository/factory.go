package repository

import (
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/payment"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/sequence"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/student"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/postgres"
	postgresRepo "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/repository/postgres"
)

func NewStudentRepository(client postgres.IClient, logger *logger.Logger) student.Repository {
	return postgresRepo.NewStudentRepository(client, logger)
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(client, logger)
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(client, logger)
}

func NewSequenceRepository(client postgres.IClient, logger *logger.Logger) sequence.Repository {
	return postgresRepo.NewSequenceRepository(client, logger)
}
