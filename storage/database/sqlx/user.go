package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/user"
)

const usersEmailKey = "users_email_key"

type userRow struct {
	ID           string      `db:"id"`
	FullName     string      `db:"full_name"`
	Email        string      `db:"email"`
	Phone        null.String `db:"phone"`
	Role         string      `db:"role"`
	CoachID      null.String `db:"coach_id"`
	Batch        null.String `db:"batch"`
	UniqueID     string      `db:"unique_id"`
	AvatarURL    null.String `db:"avatar_url"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) boil(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		FullName:     usr.FullName,
		Email:        usr.Email,
		Phone:        nullString(usr.Phone),
		Role:         usr.Role,
		CoachID:      nullString(usr.CoachID),
		Batch:        nullString(usr.Batch),
		UniqueID:     usr.UniqueID,
		AvatarURL:    nullString(usr.AvatarURL),
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    nullTime(usr.LastLogin),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		FullName:     row.FullName,
		Email:        row.Email,
		Phone:        row.Phone.String,
		Role:         row.Role,
		CoachID:      row.CoachID.String,
		Batch:        row.Batch.String,
		UniqueID:     row.UniqueID,
		AvatarURL:    row.AvatarURL.String,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

func (repo userRepository) unboilSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	w := new(where)
	w.add("email = ?", email)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		w.add("id NOT IN (?)", ids)
	}

	q, args, err := w.query(repo.db, "SELECT EXISTS (SELECT 1 FROM users", ")")
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	var exists bool
	if err = repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	const q = `
	INSERT INTO users (id, full_name, email, phone, role, coach_id, batch, unique_id, avatar_url, is_active,
		password_hash, created_at, updated_at, last_login)
	VALUES (:id, :full_name, :email, :phone, :role, :coach_id, :batch, :unique_id, :avatar_url, :is_active,
		:password_hash, :created_at, :updated_at, :last_login)
	RETURNING *`

	var row userRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(usr)); err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	w := new(where)
	if filter != nil {
		// users with FullName, Email or UniqueID matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(full_name ILIKE ? OR email ILIKE ? OR unique_id ILIKE ?)", val, val, val)
		}
		w.in("role", filter.Roles)
		if filter.Batch != "" {
			w.add("batch = ?", filter.Batch)
		}
		if filter.CoachID != "" {
			w.add("coach_id = ?", filter.CoachID)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}

	orderBy := []string{"full_name ASC"}
	if ordering = core.AllowedOrderings(ordering, user.OrderingFields...); len(ordering) > 0 {
		orderBy = orderBy[:0]
		for _, ord := range ordering {
			orderBy = append(orderBy, ord.String())
		}
	}

	var rows []userRow
	suffix := " ORDER BY " + strings.Join(orderBy, ", ") + ", id"
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM users", suffix); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return repo.unboilSlice(rows), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	w := new(where)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	case filter.UniqueID != "":
		w.add("unique_id = ?", filter.UniqueID)
	default:
		return user.User{}, user.ErrNotFound
	}

	q, args, err := w.query(repo.db, "SELECT * FROM users", " LIMIT 1")
	if err != nil {
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	var row userRow
	if err = repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
	UPDATE users SET full_name = :full_name, email = :email, phone = :phone, role = :role, coach_id = :coach_id,
		batch = :batch, avatar_url = :avatar_url, is_active = :is_active, password_hash = :password_hash,
		updated_at = :updated_at, last_login = :last_login
	WHERE id = :id
	RETURNING *`

	var row userRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(usr)); err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
