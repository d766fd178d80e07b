package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core/navigation"
)

type navigationRow struct {
	ID           string      `db:"id"`
	Role         string      `db:"role"`
	PagePath     string      `db:"page_path"`
	Label        string      `db:"label"`
	Icon         null.String `db:"icon"`
	IsVisible    bool        `db:"is_visible"`
	DisplayOrder int         `db:"display_order"`
	IsDefault    bool        `db:"is_default"`
	IsCustom     bool        `db:"is_custom"`
	URL          null.String `db:"url"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type navigationRepository struct {
	db *sqlx.DB
}

var _ navigation.Repository = (*navigationRepository)(nil) // interface compliance check

func NewNavigationRepository(db *sqlx.DB) navigation.Repository {
	return &navigationRepository{db: db}
}

func (repo navigationRepository) boil(s navigation.Setting) navigationRow {
	return navigationRow{
		ID:           s.ID,
		Role:         s.Role,
		PagePath:     s.PagePath,
		Label:        s.Label,
		Icon:         nullString(s.Icon),
		IsVisible:    s.IsVisible,
		DisplayOrder: s.DisplayOrder,
		IsDefault:    s.IsDefault,
		IsCustom:     s.IsCustom,
		URL:          nullString(s.URL),
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
}

func (repo navigationRepository) unboil(row navigationRow) navigation.Setting {
	return navigation.Setting{
		ID:           row.ID,
		Role:         row.Role,
		PagePath:     row.PagePath,
		Label:        row.Label,
		Icon:         row.Icon.String,
		IsVisible:    row.IsVisible,
		DisplayOrder: row.DisplayOrder,
		IsDefault:    row.IsDefault,
		IsCustom:     row.IsCustom,
		URL:          row.URL.String,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func (repo navigationRepository) QuerySettings(ctx context.Context, role string) ([]navigation.Setting, error) {
	var rows []navigationRow
	const q = "SELECT * FROM role_navigation_settings WHERE role = $1 ORDER BY display_order, page_path"
	if err := repo.db.SelectContext(ctx, &rows, q, role); err != nil {
		return nil, errors.Wrap(err, "selecting navigation settings")
	}
	settings := make([]navigation.Setting, 0, len(rows))
	for _, row := range rows {
		settings = append(settings, repo.unboil(row))
	}
	return settings, nil
}

func (repo navigationRepository) GetSetting(ctx context.Context, id string) (navigation.Setting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return navigation.Setting{}, navigation.ErrNotFound
	}
	var row navigationRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM role_navigation_settings WHERE id = $1", id); err != nil {
		return navigation.Setting{}, trapNoRowsErr(err, navigation.ErrNotFound, "selecting navigation setting")
	}
	return repo.unboil(row), nil
}

func (repo navigationRepository) CreateSetting(ctx context.Context, s navigation.Setting) (navigation.Setting, error) {
	s.ID = uuid.NewString()
	const q = `
	INSERT INTO role_navigation_settings (id, role, page_path, label, icon, is_visible, display_order, is_default,
		is_custom, url, created_at, updated_at)
	VALUES (:id, :role, :page_path, :label, :icon, :is_visible, :display_order, :is_default,
		:is_custom, :url, :created_at, :updated_at)
	RETURNING *`

	var row navigationRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(s)); err != nil {
		return navigation.Setting{}, errors.Wrap(err, "inserting navigation setting")
	}
	return repo.unboil(row), nil
}

func (repo navigationRepository) UpdateSetting(ctx context.Context, s navigation.Setting) (navigation.Setting, error) {
	const q = `
	UPDATE role_navigation_settings SET label = :label, icon = :icon, is_visible = :is_visible,
		display_order = :display_order, is_default = :is_default, url = :url, updated_at = :updated_at
	WHERE id = :id
	RETURNING *`

	var row navigationRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(s)); err != nil {
		return navigation.Setting{}, trapNoRowsErr(err, navigation.ErrNotFound, "updating navigation setting")
	}
	return repo.unboil(row), nil
}

func (repo navigationRepository) DeleteSetting(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM role_navigation_settings WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting navigation setting")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return navigation.ErrNotFound
	}
	return nil
}
