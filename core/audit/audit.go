// Package audit records status transitions of the tracked tables in an append-only log.
package audit

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Audited tables
const (
	TableUsers           = "users"
	TableProgress        = "participant_progress"
	TableTaskSubmissions = "task_submissions"
	TableDocuments       = "documents"
	TableTrades          = "trades"
	TableEnrollments     = "enrollment_submissions"
	TableEcommerce       = "ecommerce_setups"
	TableAttendance      = "attendance_records"
	TableNavigation      = "role_navigation_settings"
)

// Actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionSubmit = "submit"
	ActionReview = "review"
	ActionReopen = "reopen"
	ActionDelete = "delete"
)

type Entry struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	TableName string    `json:"table_name"`
	RecordID  string    `json:"record_id"`
	Action    string    `json:"action"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type QueryFilter struct {
	TableName string
	RecordID  string
	ActorID   string
	From      time.Time
	To        time.Time
}

func (qf *QueryFilter) Match(e Entry) bool {
	if qf == nil {
		return true
	}
	return (qf.TableName == "" || e.TableName == qf.TableName) &&
		(qf.RecordID == "" || e.RecordID == qf.RecordID) &&
		(qf.ActorID == "" || e.ActorID == qf.ActorID) &&
		(qf.From.IsZero() || !e.CreatedAt.Before(qf.From)) &&
		(qf.To.IsZero() || !e.CreatedAt.After(qf.To))
}

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		// QueryEntries returns the matching entries, newest first.
		QueryEntries(ctx context.Context, filter *QueryFilter) ([]Entry, error)
	}

	// Logger is what the other services need to record their transitions.
	Logger interface {
		Log(ctx context.Context, e Entry) error
	}

	ServiceInterface interface {
		Logger
		Query(ctx context.Context, filter *QueryFilter) ([]Entry, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

// Log appends e to the log. It is not part of the caller's write: a failure leaves the audited change applied.
func (svc *service) Log(ctx context.Context, e Entry) error {
	e.CreatedAt = time.Now().UTC()
	_, err := svc.repo.CreateEntry(ctx, e)
	return errors.Wrap(err, "writing audit log")
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, filter)
}
