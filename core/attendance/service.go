package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("attendance record")
	ErrBulkMarkFail = errors.New("attendance could not be marked for every participant")

	// MarkerRoles may mark attendance.
	MarkerRoles = []string{user.RoleAdmin, user.RoleCoach}
)

type (
	Repository interface {
		// QueryRecords returns records ordered by date, then user.
		QueryRecords(ctx context.Context, filter *QueryFilter) ([]Record, error)
		// UpsertRecord inserts r or updates the existing (user_id, date) row.
		UpsertRecord(ctx context.Context, r Record) (Record, error)
	}

	ServiceInterface interface {
		Records(ctx context.Context, filter *QueryFilter) ([]Record, error)
		// BulkMark writes one record per mark, in order. Writes are not atomic:
		// on failure, the marks before the failing one stay applied.
		BulkMark(ctx context.Context, marker user.User, bm BulkMark) ([]Record, error)
	}

	service struct {
		repo     Repository
		users    user.ServiceInterface
		auditLog audit.Logger
		logger   core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, users user.ServiceInterface, auditLog audit.Logger, logger core.Logger) ServiceInterface {
	return &service{
		repo:     repo,
		users:    users,
		auditLog: auditLog,
		logger:   logger,
	}
}

func (svc *service) Records(ctx context.Context, filter *QueryFilter) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}

func (svc *service) BulkMark(ctx context.Context, marker user.User, bm BulkMark) ([]Record, error) {
	if !marker.HasAnyRole(MarkerRoles...) {
		return nil, core.ErrPermissionDenied
	}
	for _, m := range bm.Records {
		participant, err := svc.users.GetByID(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		if !participant.IsParticipant() || !marker.CanView(participant) {
			return nil, core.ErrPermissionDenied
		}
	}

	day := bm.Day()
	now := time.Now().UTC()
	records := make([]Record, 0, len(bm.Records))
	for _, m := range bm.Records {
		r, err := svc.repo.UpsertRecord(ctx, Record{
			UserID:    m.UserID,
			Date:      day,
			Status:    m.Status,
			MarkedBy:  marker.ID,
			Notes:     m.Notes,
			CreatedAt: now,
		})
		if err != nil {
			svc.logger.Error("attendance.BulkMark: marking "+m.UserID, err)
			return records, ErrBulkMarkFail
		}
		records = append(records, r)

		if err = svc.auditLog.Log(ctx, audit.Entry{
			ActorID:   marker.ID,
			TableName: audit.TableAttendance,
			RecordID:  r.ID,
			Action:    audit.ActionUpdate,
			NewStatus: r.Status,
			Details:   bm.Date,
		}); err != nil {
			return records, err
		}
	}
	return records, nil
}
