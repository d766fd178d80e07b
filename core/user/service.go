package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("user")
	ErrEmailExists   = errors.New("a user with this email already exists")
	ErrInvalidCoach  = errors.New("coach not found")
	ErrNotAnAssignee = errors.New("only participants can be assigned a coach")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on the available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.FullName, User.Email or User.UniqueID.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		// Visible returns the participants `viewer` may see, filtered by `filter`.
		Visible(ctx context.Context, viewer User, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetAvatar(ctx context.Context, usr User, url string) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		AssignCoach(ctx context.Context, participantID, coachID string) (User, error)
		BulkUpdateBatch(ctx context.Context, data BulkBatchUpdate) error
		Delete(ctx context.Context, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		FullName:  nu.FullName,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      nu.Role,
		CoachID:   nu.CoachID,
		Batch:     nu.Batch,
		UniqueID:  NewUniqueID(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.CoachID != "" {
		if err := svc.checkCoach(ctx, usr.CoachID); err != nil {
			return User{}, err
		}
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, core.AllowedOrderings(ordering, OrderingFields...)...)
}

func (svc *service) Visible(ctx context.Context, viewer User, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	switch {
	case viewer.IsParticipant():
		usr, err := svc.GetByID(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		return []User{usr}, nil
	case viewer.IsCoach():
		filter.CoachID = viewer.ID
	}
	filter.Roles = []string{RoleParticipant}
	return svc.Query(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.FullName = uu.FullName
	usr.Email = uu.Email
	if uu.Phone != nil {
		usr.Phone = core.CleanString(*uu.Phone)
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.Batch != nil {
		usr.Batch = core.CleanString(*uu.Batch)
	}
	if uu.CoachID != nil && *uu.CoachID != usr.CoachID {
		if *uu.CoachID != "" {
			if err := svc.checkCoach(ctx, *uu.CoachID); err != nil {
				return User{}, err
			}
		}
		usr.CoachID = *uu.CoachID
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetAvatar(ctx context.Context, usr User, url string) (User, error) {
	usr.AvatarURL = url
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) checkCoach(ctx context.Context, coachID string) error {
	coach, err := svc.GetByID(ctx, coachID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(ErrInvalidCoach, core.FieldError{Field: "coach_id", Error: ErrInvalidCoach.Error()})
		}
		return errors.Wrap(err, "finding coach")
	}
	if !coach.IsCoach() {
		return core.NewValidationError(ErrInvalidCoach, core.FieldError{Field: "coach_id", Error: ErrInvalidCoach.Error()})
	}
	return nil
}

func (svc *service) AssignCoach(ctx context.Context, participantID, coachID string) (User, error) {
	usr, err := svc.GetByID(ctx, participantID)
	if err != nil {
		return User{}, err
	}
	if !usr.IsParticipant() {
		return User{}, core.NewValidationError(ErrNotAnAssignee, core.FieldError{Field: "id", Error: ErrNotAnAssignee.Error()})
	}
	if coachID != "" {
		if err = svc.checkCoach(ctx, coachID); err != nil {
			return User{}, err
		}
	}
	usr.CoachID = coachID
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// BulkUpdateBatch writes one user at a time and stops at the first failure.
// Users updated before the failure keep their new batch.
func (svc *service) BulkUpdateBatch(ctx context.Context, data BulkBatchUpdate) error {
	for _, id := range data.IDs {
		usr, err := svc.GetByID(ctx, id)
		if err != nil {
			return errors.Wrap(err, "updating batches")
		}
		usr.Batch = data.Batch
		usr.UpdatedAt = time.Now().UTC()
		if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
			return errors.Wrap(err, "updating batches")
		}
	}
	return nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return nil
	}
	token, err := svc.tokens.make(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.FullName,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalid := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalid
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return invalid
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verify(usr, data.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	_, err = svc.SetPassword(ctx, usr, data.Password)
	return errors.Wrap(err, "setting password")
}
