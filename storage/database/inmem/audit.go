package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) audit.Repository {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) CreateEntry(_ context.Context, e audit.Entry) (audit.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.NewString()
	repo.db.table = append(repo.db.table, e)
	return e, nil
}

func (repo *auditRepository) QueryEntries(_ context.Context, filter *audit.QueryFilter) ([]audit.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]audit.Entry, 0)
	for i := len(repo.db.table) - 1; i >= 0; i-- {
		if e := repo.db.table[i]; filter.Match(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
