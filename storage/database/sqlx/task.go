package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core/task"
)

type (
	taskRow struct {
		ID           string      `db:"id"`
		Title        string      `db:"title"`
		Description  null.String `db:"description"`
		DisplayOrder int         `db:"display_order"`
		IsActive     bool        `db:"is_active"`
		CreatedAt    time.Time   `db:"created_at"`
	}

	submissionRow struct {
		ID            string      `db:"id"`
		UserID        string      `db:"user_id"`
		TaskID        string      `db:"task_id"`
		Status        string      `db:"status"`
		Notes         null.String `db:"notes"`
		AttachmentURL null.String `db:"attachment_url"`
		ReviewNotes   null.String `db:"review_notes"`
		SubmittedAt   null.Time   `db:"submitted_at"`
		VerifiedBy    null.String `db:"verified_by"`
		VerifiedAt    null.Time   `db:"verified_at"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}
)

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo taskRepository) boilTask(t task.Task) taskRow {
	return taskRow{
		ID:           t.ID,
		Title:        t.Title,
		Description:  nullString(t.Description),
		DisplayOrder: t.DisplayOrder,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt.UTC(),
	}
}

func (repo taskRepository) unboilTask(row taskRow) task.Task {
	return task.Task{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description.String,
		DisplayOrder: row.DisplayOrder,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

func (repo taskRepository) boilSubmission(s task.Submission) submissionRow {
	return submissionRow{
		ID:            s.ID,
		UserID:        s.UserID,
		TaskID:        s.TaskID,
		Status:        s.Status,
		Notes:         nullString(s.Notes),
		AttachmentURL: nullString(s.AttachmentURL),
		ReviewNotes:   nullString(s.ReviewNotes),
		SubmittedAt:   nullTimePtr(s.SubmittedAt),
		VerifiedBy:    nullString(s.VerifiedBy),
		VerifiedAt:    nullTimePtr(s.VerifiedAt),
		CreatedAt:     s.CreatedAt.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}
}

func (repo taskRepository) unboilSubmission(row submissionRow) task.Submission {
	return task.Submission{
		ID:            row.ID,
		UserID:        row.UserID,
		TaskID:        row.TaskID,
		Status:        row.Status,
		Notes:         row.Notes.String,
		AttachmentURL: row.AttachmentURL.String,
		ReviewNotes:   row.ReviewNotes.String,
		SubmittedAt:   timePtr(row.SubmittedAt),
		VerifiedBy:    row.VerifiedBy.String,
		VerifiedAt:    timePtr(row.VerifiedAt),
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func (repo taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = uuid.NewString()
	const q = `
	INSERT INTO tasks (id, title, description, display_order, is_active, created_at)
	VALUES (:id, :title, :description, :display_order, :is_active, :created_at)
	RETURNING *`

	var row taskRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boilTask(t)); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return repo.unboilTask(row), nil
}

func (repo taskRepository) QueryTasks(ctx context.Context, activeOnly bool) ([]task.Task, error) {
	w := new(where)
	if activeOnly {
		w.add("is_active")
	}

	var rows []taskRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM tasks", " ORDER BY display_order, title"); err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, repo.unboilTask(row))
	}
	return tasks, nil
}

func (repo taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM tasks WHERE id = $1", id); err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound, "selecting task")
	}
	return repo.unboilTask(row), nil
}

func (repo taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	const q = `
	UPDATE tasks SET title = :title, description = :description, display_order = :display_order, is_active = :is_active
	WHERE id = :id
	RETURNING *`

	var row taskRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boilTask(t)); err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound, "updating task")
	}
	return repo.unboilTask(row), nil
}

func (repo taskRepository) QuerySubmissions(ctx context.Context, filter *task.SubmissionFilter) ([]task.Submission, error) {
	w := new(where)
	if filter != nil {
		w.in("user_id", filter.UserIDs)
		if filter.TaskID != "" {
			w.add("task_id = ?", filter.TaskID)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
	}

	var rows []submissionRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM task_submissions", " ORDER BY updated_at DESC"); err != nil {
		return nil, errors.Wrap(err, "selecting task submissions")
	}
	subs := make([]task.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, repo.unboilSubmission(row))
	}
	return subs, nil
}

func (repo taskRepository) GetSubmission(ctx context.Context, id string) (task.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM task_submissions WHERE id = $1", id); err != nil {
		return task.Submission{}, trapNoRowsErr(err, task.ErrSubmissionNotFound, "selecting task submission")
	}
	return repo.unboilSubmission(row), nil
}

func (repo taskRepository) GetUserSubmission(ctx context.Context, userID, taskID string) (task.Submission, error) {
	var row submissionRow
	const q = "SELECT * FROM task_submissions WHERE user_id = $1 AND task_id = $2"
	if err := repo.db.GetContext(ctx, &row, q, userID, taskID); err != nil {
		return task.Submission{}, trapNoRowsErr(err, task.ErrSubmissionNotFound, "selecting task submission")
	}
	return repo.unboilSubmission(row), nil
}

func (repo taskRepository) UpsertSubmission(ctx context.Context, s task.Submission) (task.Submission, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO task_submissions (id, user_id, task_id, status, notes, attachment_url, review_notes, submitted_at,
		verified_by, verified_at, created_at, updated_at)
	VALUES (:id, :user_id, :task_id, :status, :notes, :attachment_url, :review_notes, :submitted_at,
		:verified_by, :verified_at, :created_at, :updated_at)
	ON CONFLICT ON CONSTRAINT task_submissions_user_task_key DO UPDATE
	SET status = EXCLUDED.status, notes = EXCLUDED.notes, attachment_url = EXCLUDED.attachment_url,
		review_notes = EXCLUDED.review_notes, submitted_at = EXCLUDED.submitted_at, verified_by = EXCLUDED.verified_by,
		verified_at = EXCLUDED.verified_at, updated_at = EXCLUDED.updated_at
	RETURNING *`

	var row submissionRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boilSubmission(s)); err != nil {
		return task.Submission{}, errors.Wrap(err, "upserting task submission")
	}
	return repo.unboilSubmission(row), nil
}
