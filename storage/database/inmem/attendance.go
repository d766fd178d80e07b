package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter *attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, r := range repo.db.table {
		if filter.Match(*r) {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].UserID < records[j].UserID
	})
	return records, nil
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.Date = core.Day(r.Date)
	for _, existing := range repo.db.table {
		if existing.UserID == r.UserID && existing.Date.Equal(r.Date) {
			r.ID = existing.ID
			r.CreatedAt = existing.CreatedAt
			break
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	repo.db.table[r.ID] = &r
	return r, nil
}
