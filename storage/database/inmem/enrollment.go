package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollment}
}

func copyEnrollment(e enrollment.Enrollment) *enrollment.Enrollment {
	e.DocumentURLs = append([]string{}, e.DocumentURLs...)
	return &e
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == e.UserID {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}
	e.ID = uuid.NewString()
	repo.db.table[e.ID] = copyEnrollment(e)
	return e, nil
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, filter *enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0)
	for _, e := range repo.db.table {
		if filter.Match(*e) {
			enrollments = append(enrollments, *copyEnrollment(*e))
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].UpdatedAt.After(enrollments[j].UpdatedAt) })
	return enrollments, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return *copyEnrollment(*e), nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) GetUserEnrollment(_ context.Context, userID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.table {
		if e.UserID == userID {
			return *copyEnrollment(*e), nil
		}
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) UpdateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[e.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	repo.db.table[e.ID] = copyEnrollment(e)
	return e, nil
}
