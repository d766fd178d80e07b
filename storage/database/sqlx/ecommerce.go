package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core/ecommerce"
)

type setupRow struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	Platform  string      `db:"platform"`
	StoreName string      `db:"store_name"`
	StoreURL  null.String `db:"store_url"`
	Status    string      `db:"status"`
	Notes     null.String `db:"notes"`
	UpdatedBy null.String `db:"updated_by"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type ecommerceRepository struct {
	db *sqlx.DB
}

var _ ecommerce.Repository = (*ecommerceRepository)(nil) // interface compliance check

func NewECommerceRepository(db *sqlx.DB) ecommerce.Repository {
	return &ecommerceRepository{db: db}
}

func (repo ecommerceRepository) boil(s ecommerce.Setup) setupRow {
	return setupRow{
		ID:        s.ID,
		UserID:    s.UserID,
		Platform:  s.Platform,
		StoreName: s.StoreName,
		StoreURL:  nullString(s.StoreURL),
		Status:    s.Status,
		Notes:     nullString(s.Notes),
		UpdatedBy: nullString(s.UpdatedBy),
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

func (repo ecommerceRepository) unboil(row setupRow) ecommerce.Setup {
	return ecommerce.Setup{
		ID:        row.ID,
		UserID:    row.UserID,
		Platform:  row.Platform,
		StoreName: row.StoreName,
		StoreURL:  row.StoreURL.String,
		Status:    row.Status,
		Notes:     row.Notes.String,
		UpdatedBy: row.UpdatedBy.String,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (repo ecommerceRepository) QuerySetups(ctx context.Context, filter *ecommerce.QueryFilter) ([]ecommerce.Setup, error) {
	w := new(where)
	if filter != nil {
		w.in("user_id", filter.UserIDs)
		if filter.Platform != "" {
			w.add("platform = ?", filter.Platform)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
	}

	var rows []setupRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM ecommerce_setups", " ORDER BY updated_at DESC"); err != nil {
		return nil, errors.Wrap(err, "selecting e-commerce setups")
	}
	setups := make([]ecommerce.Setup, 0, len(rows))
	for _, row := range rows {
		setups = append(setups, repo.unboil(row))
	}
	return setups, nil
}

func (repo ecommerceRepository) GetUserSetup(ctx context.Context, userID string) (ecommerce.Setup, error) {
	var row setupRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM ecommerce_setups WHERE user_id = $1", userID); err != nil {
		return ecommerce.Setup{}, trapNoRowsErr(err, ecommerce.ErrNotFound, "selecting e-commerce setup")
	}
	return repo.unboil(row), nil
}

func (repo ecommerceRepository) UpsertSetup(ctx context.Context, s ecommerce.Setup) (ecommerce.Setup, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO ecommerce_setups (id, user_id, platform, store_name, store_url, status, notes, updated_by,
		created_at, updated_at)
	VALUES (:id, :user_id, :platform, :store_name, :store_url, :status, :notes, :updated_by,
		:created_at, :updated_at)
	ON CONFLICT (user_id) DO UPDATE
	SET platform = EXCLUDED.platform, store_name = EXCLUDED.store_name, store_url = EXCLUDED.store_url,
		status = EXCLUDED.status, notes = EXCLUDED.notes, updated_by = EXCLUDED.updated_by,
		updated_at = EXCLUDED.updated_at
	RETURNING *`

	var row setupRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(s)); err != nil {
		return ecommerce.Setup{}, errors.Wrap(err, "upserting e-commerce setup")
	}
	return repo.unboil(row), nil
}
