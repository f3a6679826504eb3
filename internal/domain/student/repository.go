package student

import (
	"context"
)

// Repository defines the interface for student persistence operations.
// The full student lifecycle is managed by the registration subsystem; the
// billing core consumes this as a directory.
type Repository interface {
	// Create creates a new student
	Create(ctx context.Context, student *Student) error

	// Get retrieves a student by ID
	Get(ctx context.Context, id string) (*Student, error)

	// Exists reports whether a student with the given ID exists
	Exists(ctx context.Context, id string) (bool, error)

	// List retrieves all students
	List(ctx context.Context) ([]*Student, error)
}
