package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/attendance"
)

type attendanceRow struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	Date      time.Time   `db:"date"`
	Status    string      `db:"status"`
	MarkedBy  null.String `db:"marked_by"`
	Notes     null.String `db:"notes"`
	CreatedAt time.Time   `db:"created_at"`
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) boil(r attendance.Record) attendanceRow {
	return attendanceRow{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      core.Day(r.Date),
		Status:    r.Status,
		MarkedBy:  nullString(r.MarkedBy),
		Notes:     nullString(r.Notes),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (repo attendanceRepository) unboil(row attendanceRow) attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		UserID:    row.UserID,
		Date:      core.Day(row.Date),
		Status:    row.Status,
		MarkedBy:  row.MarkedBy.String,
		Notes:     row.Notes.String,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter) ([]attendance.Record, error) {
	w := new(where)
	if filter != nil {
		w.in("user_id", filter.UserIDs)
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if !filter.From.IsZero() {
			w.add("date >= ?", core.Day(filter.From))
		}
		if !filter.To.IsZero() {
			w.add("date <= ?", core.Day(filter.To))
		}
	}

	var rows []attendanceRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM attendance_records", " ORDER BY date, user_id"); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, repo.unboil(row))
	}
	return records, nil
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO attendance_records (id, user_id, date, status, marked_by, notes, created_at)
	VALUES (:id, :user_id, :date, :status, :marked_by, :notes, :created_at)
	ON CONFLICT ON CONSTRAINT attendance_records_user_date_key DO UPDATE
	SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, notes = EXCLUDED.notes
	RETURNING *`

	var row attendanceRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(r)); err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	return repo.unboil(row), nil
}
