package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core/audit"
)

type auditRow struct {
	ID        string      `db:"id"`
	ActorID   null.String `db:"actor_id"`
	TableName string      `db:"table_name"`
	RecordID  string      `db:"record_id"`
	Action    string      `db:"action"`
	OldStatus null.String `db:"old_status"`
	NewStatus null.String `db:"new_status"`
	Details   null.String `db:"details"`
	CreatedAt time.Time   `db:"created_at"`
}

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) audit.Repository {
	return &auditRepository{db: db}
}

func (repo auditRepository) unboil(row auditRow) audit.Entry {
	return audit.Entry{
		ID:        row.ID,
		ActorID:   row.ActorID.String,
		TableName: row.TableName,
		RecordID:  row.RecordID,
		Action:    row.Action,
		OldStatus: row.OldStatus.String,
		NewStatus: row.NewStatus.String,
		Details:   row.Details.String,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo auditRepository) CreateEntry(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	e.ID = uuid.NewString()
	row := auditRow{
		ID:        e.ID,
		ActorID:   nullString(e.ActorID),
		TableName: e.TableName,
		RecordID:  e.RecordID,
		Action:    e.Action,
		OldStatus: nullString(e.OldStatus),
		NewStatus: nullString(e.NewStatus),
		Details:   nullString(e.Details),
		CreatedAt: e.CreatedAt.UTC(),
	}
	const q = `
	INSERT INTO audit_logs (id, actor_id, table_name, record_id, action, old_status, new_status, details, created_at)
	VALUES (:id, :actor_id, :table_name, :record_id, :action, :old_status, :new_status, :details, :created_at)`

	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit log")
	}
	return e, nil
}

func (repo auditRepository) QueryEntries(ctx context.Context, filter *audit.QueryFilter) ([]audit.Entry, error) {
	w := new(where)
	if filter != nil {
		if filter.TableName != "" {
			w.add("table_name = ?", filter.TableName)
		}
		if filter.RecordID != "" {
			w.add("record_id = ?", filter.RecordID)
		}
		if filter.ActorID != "" {
			w.add("actor_id = ?", filter.ActorID)
		}
		if !filter.From.IsZero() {
			w.add("created_at >= ?", filter.From.UTC())
		}
		if !filter.To.IsZero() {
			w.add("created_at <= ?", filter.To.UTC())
		}
	}

	var rows []auditRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM audit_logs", " ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "selecting audit logs")
	}
	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, repo.unboil(row))
	}
	return entries, nil
}
