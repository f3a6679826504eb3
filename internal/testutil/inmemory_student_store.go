package testutil

import (
	"context"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/student"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
)

// InMemoryStudentStore implements student.Repository
type InMemoryStudentStore struct {
	*InMemoryStore[*student.Student]
}

// NewInMemoryStudentStore creates a new in-memory student repository
func NewInMemoryStudentStore() *InMemoryStudentStore {
	return &InMemoryStudentStore{
		InMemoryStore: NewInMemoryStore[*student.Student](),
	}
}

func (m *InMemoryStudentStore) Create(ctx context.Context, st *student.Student) error {
	if st == nil {
		return ierr.NewError("student cannot be nil").
			WithHint("Student cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return m.InMemoryStore.Create(ctx, st.ID, st)
}

func (m *InMemoryStudentStore) Get(ctx context.Context, id string) (*student.Student, error) {
	st, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Student with id %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return st, nil
}

func (m *InMemoryStudentStore) Exists(ctx context.Context, id string) (bool, error) {
	return m.InMemoryStore.Has(ctx, id), nil
}

func (m *InMemoryStudentStore) List(ctx context.Context) ([]*student.Student, error) {
	return m.InMemoryStore.List(ctx, nil, nil,
		func(i, j *student.Student) bool { return i.ID < j.ID })
}
