package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	domainPayment "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/payment"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/postgres"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type paymentRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) domainPayment.Repository {
	return &paymentRepository{
		client: client,
		logger: logger,
	}
}

const paymentColumns = `
	id, receipt_number, student_id, payment_method_type, payment_status,
	amount, payment_date, notes, idempotency_key, voided_at, void_reason, metadata,
	status, created_at, updated_at, created_by, updated_by`

func (r *paymentRepository) CreateWithAllocations(ctx context.Context, p *domainPayment.Payment) error {
	insertPayment := `
		INSERT INTO payments (
			id, receipt_number, student_id, payment_method_type, payment_status,
			amount, payment_date, notes, idempotency_key, voided_at, void_reason, metadata,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :receipt_number, :student_id, :payment_method_type, :payment_status,
			:amount, :payment_date, :notes, :idempotency_key, :voided_at, :void_reason, :metadata,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	insertAllocation := `
		INSERT INTO payment_allocations (
			id, payment_id, invoice_id, amount_applied,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :payment_id, :invoice_id, :amount_applied,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), insertPayment, p); err != nil {
			if isUniqueViolation(err) {
				return ierr.WithError(err).
					WithHint("Payment with same receipt number or idempotency key already exists").
					WithReportableDetails(map[string]any{
						"payment_id":     p.ID,
						"receipt_number": p.ReceiptNumber,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
			return ierr.WithError(err).WithHint("Payment creation failed").Mark(ierr.ErrDatabase)
		}

		for _, alloc := range p.Allocations {
			if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), insertAllocation, alloc); err != nil {
				return ierr.WithError(err).
					WithHint("Payment allocation creation failed").
					WithReportableDetails(map[string]any{
						"payment_id": p.ID,
						"invoice_id": alloc.InvoiceID,
					}).
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*domainPayment.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1 AND status != $2`, paymentColumns)

	var p domainPayment.Payment
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, id, types.StatusDeleted)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment %s does not exist", id).
			WithReportableDetails(map[string]any{
				"payment_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Payment lookup failed").Mark(ierr.ErrDatabase)
	}

	allocations, err := r.allocations(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Allocations = allocations
	return &p, nil
}

func (r *paymentRepository) allocations(ctx context.Context, paymentID string) ([]*domainPayment.Allocation, error) {
	query := `
		SELECT id, payment_id, invoice_id, amount_applied,
			status, created_at, updated_at, created_by, updated_by
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY created_at, id`

	var allocations []*domainPayment.Allocation
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &allocations, query, paymentID); err != nil {
		return nil, ierr.WithError(err).WithHint("Payment allocation lookup failed").Mark(ierr.ErrDatabase)
	}
	return allocations, nil
}

// Update only touches void markers; everything else on a payment is
// immutable once registered.
func (r *paymentRepository) Update(ctx context.Context, p *domainPayment.Payment) error {
	query := `
		UPDATE payments SET
			payment_status = :payment_status,
			voided_at = :voided_at,
			void_reason = :void_reason,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND status != :deleted_status`

	p.UpdatedAt = time.Now().UTC()
	args := map[string]interface{}{
		"id":             p.ID,
		"payment_status": p.PaymentStatus,
		"voided_at":      p.VoidedAt,
		"void_reason":    p.VoidReason,
		"updated_at":     p.UpdatedAt,
		"updated_by":     p.UpdatedBy,
		"deleted_status": types.StatusDeleted,
	}

	result, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, args)
	if err != nil {
		return ierr.WithError(err).WithHint("Payment update failed").Mark(ierr.ErrDatabase)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).WithHint("Payment update failed").Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewError("payment not found").
			WithHintf("Payment %s does not exist", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*domainPayment.Payment, error) {
	query, args := r.buildListQuery(fmt.Sprintf(`SELECT %s FROM payments`, paymentColumns), filter)
	query += ` ORDER BY payment_date DESC, id DESC`

	var payments []*domainPayment.Payment
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &payments, query, args...); err != nil {
		return nil, ierr.WithError(err).WithHint("Payment listing failed").Mark(ierr.ErrDatabase)
	}

	for _, p := range payments {
		allocations, err := r.allocations(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Allocations = allocations
	}
	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	query, args := r.buildListQuery(`SELECT COUNT(*) FROM payments`, filter)

	var count int
	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &count, query, args...); err != nil {
		return 0, ierr.WithError(err).WithHint("Payment count failed").Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domainPayment.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE idempotency_key = $1 AND status != $2`, paymentColumns)

	var p domainPayment.Payment
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, key, types.StatusDeleted)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("payment not found").
			WithReportableDetails(map[string]any{
				"idempotency_key": key,
			}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Payment lookup failed").Mark(ierr.ErrDatabase)
	}

	allocations, err := r.allocations(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Allocations = allocations
	return &p, nil
}

func (r *paymentRepository) buildListQuery(base string, filter *types.PaymentFilter) (string, []interface{}) {
	conditions := []string{"status != ?"}
	args := []interface{}{types.StatusDeleted}

	if filter != nil {
		if filter.StudentID != "" {
			conditions = append(conditions, "student_id = ?")
			args = append(args, filter.StudentID)
		}
		if filter.InvoiceID != "" {
			conditions = append(conditions, "id IN (SELECT payment_id FROM payment_allocations WHERE invoice_id = ?)")
			args = append(args, filter.InvoiceID)
		}
		if filter.PaymentStatus != nil {
			conditions = append(conditions, "payment_status = ?")
			args = append(args, *filter.PaymentStatus)
		}
	}

	query := base + " WHERE " + strings.Join(conditions, " AND ")
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
