package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	domainInvoice "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/invoice"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/postgres"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type invoiceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) domainInvoice.Repository {
	return &invoiceRepository{
		client: client,
		logger: logger,
	}
}

const invoiceColumns = `
	id, student_id, document_number, category, invoice_status,
	subtotal, tax, total, amount_paid, billing_period,
	issued_at, due_date, paid_at, cancelled_at, description, version,
	status, created_at, updated_at, created_by, updated_by`

func (r *invoiceRepository) CreateWithLineItems(ctx context.Context, inv *domainInvoice.Invoice) error {
	insertInvoice := `
		INSERT INTO invoices (
			id, student_id, document_number, category, invoice_status,
			subtotal, tax, total, amount_paid, billing_period,
			issued_at, due_date, paid_at, cancelled_at, description, version,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :student_id, :document_number, :category, :invoice_status,
			:subtotal, :tax, :total, :amount_paid, :billing_period,
			:issued_at, :due_date, :paid_at, :cancelled_at, :description, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	insertLineItem := `
		INSERT INTO invoice_line_items (
			id, invoice_id, description, quantity, unit_price, amount,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :invoice_id, :description, :quantity, :unit_price, :amount,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), insertInvoice, inv); err != nil {
			if isUniqueViolation(err) {
				return ierr.WithError(err).
					WithHint("Invoice with same document number already exists").
					WithReportableDetails(map[string]any{
						"invoice_id":      inv.ID,
						"document_number": inv.DocumentNumber,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
			return ierr.WithError(err).WithHint("Invoice creation failed").Mark(ierr.ErrDatabase)
		}

		for _, item := range inv.LineItems {
			if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), insertLineItem, item); err != nil {
				return ierr.WithError(err).
					WithHint("Invoice line item creation failed").
					WithReportableDetails(map[string]any{
						"invoice_id":   inv.ID,
						"line_item_id": item.ID,
					}).
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*domainInvoice.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1 AND status != $2`, invoiceColumns)
	return r.getOne(ctx, query, id)
}

// GetForUpdate locks the invoice row until the surrounding transaction ends,
// so the read-validate-write sequence in the payment ledger cannot interleave
// with a concurrent payment against the same invoice.
func (r *invoiceRepository) GetForUpdate(ctx context.Context, id string) (*domainInvoice.Invoice, error) {
	if r.client.TxFromContext(ctx) == nil {
		return nil, ierr.NewError("GetForUpdate requires a transaction").
			Mark(ierr.ErrSystem)
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1 AND status != $2 FOR UPDATE`, invoiceColumns)
	return r.getOne(ctx, query, id)
}

func (r *invoiceRepository) getOne(ctx context.Context, query, id string) (*domainInvoice.Invoice, error) {
	var inv domainInvoice.Invoice
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &inv, query, id, types.StatusDeleted)
	if err == sql.ErrNoRows {
		return nil, ierr.WithError(domainInvoice.ErrInvoiceNotFound).
			WithHintf("Invoice %s does not exist", id).
			WithReportableDetails(map[string]any{
				"invoice_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Invoice lookup failed").Mark(ierr.ErrDatabase)
	}

	items, err := r.lineItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return &inv, nil
}

func (r *invoiceRepository) lineItems(ctx context.Context, invoiceID string) ([]*domainInvoice.LineItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, amount,
			status, created_at, updated_at, created_by, updated_by
		FROM invoice_line_items
		WHERE invoice_id = $1 AND status != $2
		ORDER BY created_at, id`

	var items []*domainInvoice.LineItem
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &items, query, invoiceID, types.StatusDeleted); err != nil {
		return nil, ierr.WithError(err).WithHint("Invoice line item lookup failed").Mark(ierr.ErrDatabase)
	}
	return items, nil
}

// Update persists mutable invoice fields with optimistic locking on Version.
// A zero row count means another writer got there first; the ledger surfaces
// that as a retryable conflict.
func (r *invoiceRepository) Update(ctx context.Context, inv *domainInvoice.Invoice) error {
	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			subtotal = :subtotal,
			tax = :tax,
			total = :total,
			amount_paid = :amount_paid,
			due_date = :due_date,
			paid_at = :paid_at,
			cancelled_at = :cancelled_at,
			description = :description,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND version = :version AND status != :deleted_status`

	inv.UpdatedAt = time.Now().UTC()
	args := map[string]interface{}{
		"id":             inv.ID,
		"invoice_status": inv.InvoiceStatus,
		"subtotal":       inv.Subtotal,
		"tax":            inv.Tax,
		"total":          inv.Total,
		"amount_paid":    inv.AmountPaid,
		"due_date":       inv.DueDate,
		"paid_at":        inv.PaidAt,
		"cancelled_at":   inv.CancelledAt,
		"description":    inv.Description,
		"version":        inv.Version,
		"updated_at":     inv.UpdatedAt,
		"updated_by":     inv.UpdatedBy,
		"deleted_status": types.StatusDeleted,
	}

	result, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, args)
	if err != nil {
		return ierr.WithError(err).WithHint("Invoice update failed").Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).WithHint("Invoice update failed").Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewError("invoice was modified concurrently").
			WithHintf("Invoice %s changed since it was read, retry the operation", inv.ID).
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"version":    inv.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		queries := []string{
			`UPDATE invoice_line_items SET status = $1, updated_at = $2 WHERE invoice_id = $3`,
			`UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3`,
		}
		for _, q := range queries {
			if _, err := r.client.Querier(ctx).ExecContext(ctx, q, types.StatusDeleted, now, id); err != nil {
				return ierr.WithError(err).
					WithHint("Invoice deletion failed").
					WithReportableDetails(map[string]any{
						"invoice_id": id,
					}).
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*domainInvoice.Invoice, error) {
	query, args := r.buildListQuery(fmt.Sprintf(`SELECT %s FROM invoices`, invoiceColumns), filter)
	query += ` ORDER BY issued_at DESC, id DESC`

	var invoices []*domainInvoice.Invoice
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &invoices, query, args...); err != nil {
		return nil, ierr.WithError(err).WithHint("Invoice listing failed").Mark(ierr.ErrDatabase)
	}

	for _, inv := range invoices {
		items, err := r.lineItems(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		inv.LineItems = items
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	query, args := r.buildListQuery(`SELECT COUNT(*) FROM invoices`, filter)

	var count int
	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &count, query, args...); err != nil {
		return 0, ierr.WithError(err).WithHint("Invoice count failed").Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *invoiceRepository) buildListQuery(base string, filter *types.InvoiceFilter) (string, []interface{}) {
	conditions := []string{"status != ?"}
	args := []interface{}{types.StatusDeleted}

	if filter != nil {
		if filter.StudentID != "" {
			conditions = append(conditions, "student_id = ?")
			args = append(args, filter.StudentID)
		}
		if len(filter.InvoiceStatus) > 0 {
			placeholders := make([]string, len(filter.InvoiceStatus))
			for i, status := range filter.InvoiceStatus {
				placeholders[i] = "?"
				args = append(args, status)
			}
			conditions = append(conditions, fmt.Sprintf("invoice_status IN (%s)", strings.Join(placeholders, ", ")))
		}
		if filter.BillingPeriod != "" {
			conditions = append(conditions, "billing_period = ?")
			args = append(args, filter.BillingPeriod)
		}
	}

	query := base + " WHERE " + strings.Join(conditions, " AND ")
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
