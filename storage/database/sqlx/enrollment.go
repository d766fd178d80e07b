package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core/enrollment"
)

const enrollmentsUserKey = "enrollment_submissions_user_id_key"

type enrollmentRow struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	Status       string         `db:"status"`
	DocumentURLs pq.StringArray `db:"document_urls"`
	Notes        null.String    `db:"notes"`
	UpdatedBy    null.String    `db:"updated_by"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) boil(e enrollment.Enrollment) enrollmentRow {
	urls := pq.StringArray(e.DocumentURLs)
	if urls == nil {
		urls = pq.StringArray{}
	}
	return enrollmentRow{
		ID:           e.ID,
		UserID:       e.UserID,
		Status:       e.Status,
		DocumentURLs: urls,
		Notes:        nullString(e.Notes),
		UpdatedBy:    nullString(e.UpdatedBy),
		CreatedAt:    e.CreatedAt.UTC(),
		UpdatedAt:    e.UpdatedAt.UTC(),
	}
}

func (repo enrollmentRepository) unboil(row enrollmentRow) enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:           row.ID,
		UserID:       row.UserID,
		Status:       row.Status,
		DocumentURLs: append([]string{}, row.DocumentURLs...),
		Notes:        row.Notes.String,
		UpdatedBy:    row.UpdatedBy.String,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	e.ID = uuid.NewString()
	const q = `
	INSERT INTO enrollment_submissions (id, user_id, status, document_urls, notes, updated_by, created_at, updated_at)
	VALUES (:id, :user_id, :status, :document_urls, :notes, :updated_by, :created_at, :updated_at)
	RETURNING *`

	var row enrollmentRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(e)); err != nil {
		if isUniqueViolation(err, enrollmentsUserKey) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return repo.unboil(row), nil
}

func (repo enrollmentRepository) QueryEnrollments(ctx context.Context, filter *enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	w := new(where)
	if filter != nil {
		w.in("user_id", filter.UserIDs)
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
	}

	var rows []enrollmentRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM enrollment_submissions", " ORDER BY updated_at DESC"); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, repo.unboil(row))
	}
	return enrollments, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM enrollment_submissions WHERE id = $1", id); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "selecting enrollment")
	}
	return repo.unboil(row), nil
}

func (repo enrollmentRepository) GetUserEnrollment(ctx context.Context, userID string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM enrollment_submissions WHERE user_id = $1", userID); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "selecting enrollment")
	}
	return repo.unboil(row), nil
}

func (repo enrollmentRepository) UpdateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	const q = `
	UPDATE enrollment_submissions SET status = :status, document_urls = :document_urls, notes = :notes,
		updated_by = :updated_by, updated_at = :updated_at
	WHERE id = :id
	RETURNING *`

	var row enrollmentRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(e)); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "updating enrollment")
	}
	return repo.unboil(row), nil
}
