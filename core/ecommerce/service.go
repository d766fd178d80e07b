package ecommerce

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("e-commerce setup")

	// StaffRoles may create and update setups.
	StaffRoles = []string{user.RoleAdmin, user.RoleEcommerce}

	platformTag  = "platform"
	platformText = "unsupported platform"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(platformTag, func(fl validator.FieldLevel) bool {
		return core.StringInSlice(fl.Field().String(), Platforms)
	})
	core.RegisterCustomTranslation(validate, translator, platformTag, platformText)
}

type (
	Repository interface {
		QuerySetups(ctx context.Context, filter *QueryFilter) ([]Setup, error)
		GetUserSetup(ctx context.Context, userID string) (Setup, error)
		// UpsertSetup inserts s or updates the existing row of s.UserID.
		UpsertSetup(ctx context.Context, s Setup) (Setup, error)
	}

	ServiceInterface interface {
		Setups(ctx context.Context, filter *QueryFilter) ([]Setup, error)
		GetByUser(ctx context.Context, viewer user.User, userID string) (Setup, error)
		Save(ctx context.Context, staff user.User, participantID string, ss SaveSetup) (Setup, error)
	}

	service struct {
		repo     Repository
		users    user.ServiceInterface
		auditLog audit.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, users user.ServiceInterface, auditLog audit.Logger) ServiceInterface {
	return &service{repo: repo, users: users, auditLog: auditLog}
}

func (svc *service) Setups(ctx context.Context, filter *QueryFilter) ([]Setup, error) {
	return svc.repo.QuerySetups(ctx, filter)
}

func (svc *service) GetByUser(ctx context.Context, viewer user.User, userID string) (Setup, error) {
	owner, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return Setup{}, err
	}
	if !viewer.CanView(owner) {
		return Setup{}, core.ErrPermissionDenied
	}
	return svc.repo.GetUserSetup(ctx, owner.ID)
}

func (svc *service) Save(ctx context.Context, staff user.User, participantID string, ss SaveSetup) (Setup, error) {
	if !staff.HasAnyRole(StaffRoles...) {
		return Setup{}, core.ErrPermissionDenied
	}
	owner, err := svc.users.GetByID(ctx, participantID)
	if err != nil {
		return Setup{}, err
	}
	if !owner.IsParticipant() {
		return Setup{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	s, err := svc.repo.GetUserSetup(ctx, owner.ID)
	action := audit.ActionUpdate
	if err != nil {
		if !core.IsNotFound(err) {
			return Setup{}, errors.Wrap(err, "finding e-commerce setup")
		}
		s = Setup{UserID: owner.ID, Status: workflow.ECommerceSetup.Initial, CreatedAt: now}
		action = audit.ActionCreate
	}
	oldStatus := s.Status
	if ss.Status != "" {
		if err = workflow.ECommerceSetup.Check(oldStatus, ss.Status, workflow.ActorOf(staff.Role)); err != nil {
			return Setup{}, err
		}
		s.Status = ss.Status
	}

	s.Platform = ss.Platform
	s.StoreName = ss.StoreName
	s.StoreURL = ss.StoreURL
	s.Notes = ss.Notes
	s.UpdatedBy = staff.ID
	s.UpdatedAt = now

	if s, err = svc.repo.UpsertSetup(ctx, s); err != nil {
		return Setup{}, errors.Wrap(err, "saving e-commerce setup")
	}
	if action == audit.ActionCreate {
		oldStatus = ""
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   staff.ID,
		TableName: audit.TableEcommerce,
		RecordID:  s.ID,
		Action:    action,
		OldStatus: oldStatus,
		NewStatus: s.Status,
		Details:   s.Platform + ": " + s.StoreName,
	})
	return s, err
}
