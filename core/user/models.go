package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathwayhq/pathway/core"
)

// Roles
const (
	RoleAdmin       = "admin"
	RoleCoach       = "coach"
	RoleFinance     = "finance"
	RoleEcommerce   = "ecommerce"
	RoleParticipant = "participant"
)

var (
	StaffRoles = []string{RoleAdmin, RoleCoach, RoleFinance, RoleEcommerce}
	AllRoles   = []string{RoleAdmin, RoleCoach, RoleFinance, RoleEcommerce, RoleParticipant}

	rolePriorities = map[string]int{
		RoleAdmin:       30,
		RoleCoach:       20,
		RoleFinance:     15,
		RoleEcommerce:   15,
		RoleParticipant: 1,
	}

	Roles = []Role{
		{Name: "Participant", Value: RoleParticipant},
		{Name: "Coach", Value: RoleCoach},
		{Name: "Finance", Value: RoleFinance},
		{Name: "E-Commerce", Value: RoleEcommerce},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func IsValidRole(role string) bool {
	return core.StringInSlice(role, AllRoles)
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	CoachID      string    `json:"coach_id"`
	Batch        string    `json:"batch"`
	UniqueID     string    `json:"unique_id"`
	AvatarURL    string    `json:"avatar_url"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasAnyRole(roles ...string) bool {
	return core.StringInSlice(u.Role, roles)
}

func (u *User) IsAdmin() bool       { return u.Role == RoleAdmin }
func (u *User) IsCoach() bool       { return u.Role == RoleCoach }
func (u *User) IsFinance() bool     { return u.Role == RoleFinance }
func (u *User) IsEcommerce() bool   { return u.Role == RoleEcommerce }
func (u *User) IsParticipant() bool { return u.Role == RoleParticipant }
func (u *User) IsStaff() bool       { return u.HasAnyRole(StaffRoles...) }

// CanView tells whether u may see other's data: staff other than coaches see everyone,
// coaches see their assigned participants, everybody sees themselves.
func (u *User) CanView(other User) bool {
	switch {
	case u.ID == other.ID, u.IsAdmin(), u.IsFinance(), u.IsEcommerce():
		return true
	case u.IsCoach():
		return other.CoachID == u.ID
	}
	return false
}

// NewUniqueID generates the human-friendly participant identifier, e.g. PW-3F2A9C1D.
func NewUniqueID() string {
	return "PW-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Role            string `json:"role" validate:"required,role"`
	CoachID         string `json:"coach_id"`
	Batch           string `json:"batch"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Batch = core.CleanString(nu.Batch)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleParticipant
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	FullName        string  `json:"full_name"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone"`
	Role            string  `json:"role" validate:"omitempty,role"`
	CoachID         *string `json:"coach_id"`
	Batch           *string `json:"batch"`
	IsActive        *bool   `json:"is_active"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// HasAdminFields tells whether uu sets fields only admins may change.
func (uu *UpdateUser) HasAdminFields() bool {
	return uu.Role != "" || uu.IsActive != nil || uu.CoachID != nil || uu.Batch != nil || uu.Email != ""
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	if name := core.CleanString(uu.FullName); name != "" {
		uu.FullName = name
	} else {
		uu.FullName = origUsr.FullName
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	uu.Role = core.CleanString(uu.Role, true /* lower */)

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// BulkBatchUpdate moves several participants to the same batch.
type BulkBatchUpdate struct {
	IDs   []string `json:"ids" validate:"required,min=1"`
	Batch string   `json:"batch"`
}

func (bu *BulkBatchUpdate) Validate(validate *validator.Validate) error {
	bu.Batch = core.CleanString(bu.Batch)
	return validate.Struct(bu)
}

type QueryFilter struct {
	Search      string
	Roles       []string
	Batch       string
	CoachID     string
	IsActive    *bool
	CreatedFrom time.Time
	CreatedTo   time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Batch == "" && qf.CoachID == "" && qf.IsActive == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Batch = core.CleanString(qf.Batch)
}

// Match applies the filter to a single User; repositories without a query language use it.
func (qf *QueryFilter) Match(usr User) bool {
	if qf == nil || qf.IsEmpty() {
		return true
	}
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(usr.FullName), s) ||
			strings.Contains(strings.ToLower(usr.Email), s) ||
			strings.Contains(strings.ToLower(usr.UniqueID), s)) {
			return false
		}
	}
	if qf.Roles != nil && !core.StringInSlice(usr.Role, qf.Roles) {
		return false
	}
	if qf.Batch != "" && usr.Batch != qf.Batch {
		return false
	}
	if qf.CoachID != "" && usr.CoachID != qf.CoachID {
		return false
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	if !qf.CreatedFrom.IsZero() && usr.CreatedAt.Before(qf.CreatedFrom) {
		return false
	}
	if !qf.CreatedTo.IsZero() && usr.CreatedAt.After(qf.CreatedTo) {
		return false
	}
	return true
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID       string
	Email    string
	UniqueID string
}

// Orderings allowed on users listings.
var OrderingFields = []string{"full_name", "email", "role", "batch", "unique_id", "is_active", "created_at", "last_login"}
