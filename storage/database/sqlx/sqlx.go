// Package sqlxrepos implements the repositories on Postgres, with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core"
)

const uniqueViolation = "23505"

// trapNoRowsErr maps the "no rows" error to `notFound`.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation tells whether err was raised by the unique constraint (or index) named `constraint`.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func nullTime(t time.Time) null.Time {
	return null.NewTime(t.UTC(), !t.IsZero())
}

func nullTimePtr(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func timePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	return core.TimePtr(t.Time.UTC())
}

// where accumulates AND-ed conditions written with `?` bindvars.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// in adds `col IN (ids)`; a non-nil empty slice matches nothing.
func (w *where) in(col string, ids []string) {
	switch {
	case ids == nil:
	case len(ids) == 0:
		w.add("FALSE")
	default:
		w.add(col+" IN (?)", ids)
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// query expands the IN clauses of `base + w + suffix` and rebinds it to the DB bindvars.
func (w *where) query(db *sqlx.DB, base, suffix string) (string, []interface{}, error) {
	q, args, err := sqlx.In(base+w.String()+suffix, w.args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), args, nil
}

func (w *where) selectContext(ctx context.Context, db *sqlx.DB, dest interface{}, base, suffix string) error {
	q, args, err := w.query(db, base, suffix)
	if err != nil {
		return err
	}
	return db.SelectContext(ctx, dest, q, args...)
}

// namedGet runs a named query returning a single row into `dest`.
func namedGet(ctx context.Context, db *sqlx.DB, dest interface{}, q string, arg interface{}) error {
	q, args, err := db.BindNamed(q, arg)
	if err != nil {
		return err
	}
	return db.GetContext(ctx, dest, q, args...)
}
