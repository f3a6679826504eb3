package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	domainStudent "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/student"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/postgres"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type studentRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewStudentRepository(client postgres.IClient, logger *logger.Logger) domainStudent.Repository {
	return &studentRepository{
		client: client,
		logger: logger,
	}
}

func (r *studentRepository) Create(ctx context.Context, s *domainStudent.Student) error {
	query := `
		INSERT INTO students (
			id, code, first_name, last_name, email, tax_condition,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :code, :first_name, :last_name, :email, :tax_condition,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, s); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A student with the same email already exists").
				WithReportableDetails(map[string]any{
					"student_id": s.ID,
					"email":      s.Email,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).WithHint("Student creation failed").Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *studentRepository) Get(ctx context.Context, id string) (*domainStudent.Student, error) {
	query := `SELECT * FROM students WHERE id = $1 AND status != $2`

	var s domainStudent.Student
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &s, query, id, types.StatusDeleted)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("student not found").
			WithHintf("Student %s does not exist", id).
			WithReportableDetails(map[string]any{
				"student_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Student lookup failed").Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *studentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1 AND status != $2)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &exists, query, id, types.StatusDeleted); err != nil {
		return false, ierr.WithError(err).WithHint("Student existence check failed").Mark(ierr.ErrDatabase)
	}
	return exists, nil
}

func (r *studentRepository) List(ctx context.Context) ([]*domainStudent.Student, error) {
	query := `SELECT * FROM students WHERE status != $1 ORDER BY last_name, first_name`

	var students []*domainStudent.Student
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &students, query, types.StatusDeleted); err != nil {
		return nil, ierr.WithError(err).WithHint("Student listing failed").Mark(ierr.ErrDatabase)
	}
	return students, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if ierr.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
