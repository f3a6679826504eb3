package service

import (
	"context"
	"time"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/dto"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/cache"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/domain/student"
)

const studentCacheExpiry = 5 * time.Minute

// StudentService exposes the student directory consumed by the billing core.
type StudentService interface {
	CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	GetStudent(ctx context.Context, id string) (*dto.StudentResponse, error)
	ListStudents(ctx context.Context) (*dto.ListStudentsResponse, error)
}

type studentService struct {
	ServiceParams
}

func NewStudentService(params ServiceParams) StudentService {
	return &studentService{ServiceParams: params}
}

func (s *studentService) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st := req.ToStudent(ctx)
	if err := st.Validate(); err != nil {
		return nil, err
	}

	if err := s.StudentRepo.Create(ctx, st); err != nil {
		return nil, err
	}

	s.Logger.Infow("created student",
		"student_id", st.ID,
		"tax_condition", st.TaxCondition)
	return dto.NewStudentResponse(st), nil
}

func (s *studentService) GetStudent(ctx context.Context, id string) (*dto.StudentResponse, error) {
	st, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponse(st), nil
}

func (s *studentService) ListStudents(ctx context.Context) (*dto.ListStudentsResponse, error) {
	students, err := s.StudentRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListStudentsResponse{
		Items: make([]*dto.StudentResponse, 0, len(students)),
		Total: len(students),
	}
	for _, st := range students {
		resp.Items = append(resp.Items, dto.NewStudentResponse(st))
	}
	return resp, nil
}

// getStudent reads through the cache. Student records change rarely and are
// looked up on every invoice and payment operation.
func (s *studentService) getStudent(ctx context.Context, id string) (*student.Student, error) {
	key := cache.GenerateKey(cache.PrefixStudent, id)
	if cached, found := s.Cache.Get(ctx, key); found {
		if st, ok := cached.(*student.Student); ok {
			return st, nil
		}
	}

	st, err := s.StudentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, st, studentCacheExpiry)
	return st, nil
}
