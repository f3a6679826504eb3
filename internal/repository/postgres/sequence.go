package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	domainSequence "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/sequence"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/postgres"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type sequenceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSequenceRepository(client postgres.IClient, logger *logger.Logger) domainSequence.Repository {
	return &sequenceRepository{
		client: client,
		logger: logger,
	}
}

// Next relies on ON CONFLICT DO UPDATE with RETURNING so the
// create-if-absent and the increment are a single statement: Postgres
// serializes concurrent upserts on the category key, so two callers can
// never receive the same value. Inside a WithTx scope the increment commits
// or rolls back with the rest of the transaction.
func (r *sequenceRepository) Next(ctx context.Context, category types.DocumentCategory) (int64, error) {
	if err := category.Validate(); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO document_sequences (id, category, last_value, created_at, updated_at)
		VALUES ($1, $2, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (category) DO UPDATE
		SET last_value = document_sequences.last_value + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING last_value`

	var lastValue int64
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SEQUENCE)
	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &lastValue, query, id, category.String()); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Document number generation failed").
			WithReportableDetails(map[string]any{
				"category": category,
			}).
			Mark(ierr.ErrDatabase)
	}

	r.logger.Debugw("issued document sequence value",
		"category", category,
		"sequence", lastValue)

	return lastValue, nil
}

func (r *sequenceRepository) Current(ctx context.Context, category types.DocumentCategory) (int64, error) {
	if err := category.Validate(); err != nil {
		return 0, err
	}

	query := `SELECT last_value FROM document_sequences WHERE category = $1`

	var lastValue int64
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &lastValue, query, category.String())
	if err == sql.ErrNoRows {
		// Uninitialized counters read as zero
		return 0, nil
	}
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Document sequence lookup failed").
			WithReportableDetails(map[string]any{
				"category": category,
			}).
			Mark(ierr.ErrDatabase)
	}
	return lastValue, nil
}

func (r *sequenceRepository) Reset(ctx context.Context, category types.DocumentCategory) error {
	if err := category.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO document_sequences (id, category, last_value, created_at, updated_at)
		VALUES ($1, $2, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (category) DO UPDATE
		SET last_value = 0,
			updated_at = CURRENT_TIMESTAMP`

	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SEQUENCE)
	if _, err := r.client.Querier(ctx).ExecContext(ctx, query, id, category.String()); err != nil {
		return ierr.WithError(err).
			WithHint("Document sequence reset failed").
			WithReportableDetails(map[string]any{
				"category": category,
			}).
			Mark(ierr.ErrDatabase)
	}

	r.logger.Infow("reset document sequence", "category", category)
	return nil
}
