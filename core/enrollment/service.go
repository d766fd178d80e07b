package enrollment

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("enrollment")
	ErrAlreadyEnrolled = errors.New("an enrollment was already submitted")

	// StaffRoles may select any enrollment status.
	StaffRoles = []string{user.RoleAdmin, user.RoleCoach, user.RoleFinance}
)

type (
	Repository interface {
		// CreateEnrollment fails with ErrAlreadyEnrolled when the user already has an enrollment.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter *QueryFilter) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		GetUserEnrollment(ctx context.Context, userID string) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
	}

	ServiceInterface interface {
		Enrollments(ctx context.Context, filter *QueryFilter) ([]Enrollment, error)
		Get(ctx context.Context, id string) (Enrollment, error)
		GetByUser(ctx context.Context, userID string) (Enrollment, error)
		Create(ctx context.Context, participant user.User, ne NewEnrollment) (Enrollment, error)
		// MarkDocumentsSent is the only transition a participant may trigger.
		MarkDocumentsSent(ctx context.Context, participant user.User, ds DocumentsSent) (Enrollment, error)
		SetStatus(ctx context.Context, staff user.User, id string, us UpdateStatus) (Enrollment, error)
	}

	service struct {
		repo     Repository
		users    user.ServiceInterface
		auditLog audit.Logger
		mailSvc  core.EmailService
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, users user.ServiceInterface, auditLog audit.Logger, mailSvc core.EmailService) ServiceInterface {
	return &service{
		repo:     repo,
		users:    users,
		auditLog: auditLog,
		mailSvc:  mailSvc,
	}
}

func (svc *service) Enrollments(ctx context.Context, filter *QueryFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *service) Get(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

func (svc *service) GetByUser(ctx context.Context, userID string) (Enrollment, error) {
	return svc.repo.GetUserEnrollment(ctx, userID)
}

func (svc *service) Create(ctx context.Context, participant user.User, ne NewEnrollment) (Enrollment, error) {
	if !participant.IsParticipant() {
		return Enrollment{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	urls := ne.DocumentURLs
	if urls == nil {
		urls = []string{}
	}
	e, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		UserID:       participant.ID,
		Status:       workflow.Enrollment.Initial,
		DocumentURLs: urls,
		Notes:        ne.Notes,
		UpdatedBy:    participant.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "user_id", Error: err.Error()})
		}
		return Enrollment{}, errors.Wrap(err, "saving enrollment")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   participant.ID,
		TableName: audit.TableEnrollments,
		RecordID:  e.ID,
		Action:    audit.ActionCreate,
		NewStatus: e.Status,
	})
	return e, err
}

func (svc *service) MarkDocumentsSent(ctx context.Context, participant user.User, ds DocumentsSent) (Enrollment, error) {
	if !participant.IsParticipant() {
		return Enrollment{}, core.ErrPermissionDenied
	}
	e, err := svc.repo.GetUserEnrollment(ctx, participant.ID)
	if err != nil {
		return Enrollment{}, err
	}
	oldStatus := e.Status
	if err = workflow.Enrollment.Check(oldStatus, workflow.EnrollmentDocumentsSentToOffice, workflow.ActorParticipant); err != nil {
		return Enrollment{}, err
	}

	e.Status = workflow.EnrollmentDocumentsSentToOffice
	e.DocumentURLs = append(e.DocumentURLs, ds.DocumentURLs...)
	if ds.Notes != "" {
		e.Notes = ds.Notes
	}
	e.UpdatedBy = participant.ID
	e.UpdatedAt = time.Now().UTC()

	if e, err = svc.repo.UpdateEnrollment(ctx, e); err != nil {
		return Enrollment{}, errors.Wrap(err, "saving enrollment")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   participant.ID,
		TableName: audit.TableEnrollments,
		RecordID:  e.ID,
		Action:    audit.ActionSubmit,
		OldStatus: oldStatus,
		NewStatus: e.Status,
	})
	return e, err
}

func (svc *service) SetStatus(ctx context.Context, staff user.User, id string, us UpdateStatus) (Enrollment, error) {
	e, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	owner, err := svc.users.GetByID(ctx, e.UserID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "finding enrollment owner")
	}
	if !staff.HasAnyRole(StaffRoles...) || !staff.CanView(owner) {
		return Enrollment{}, core.ErrPermissionDenied
	}
	oldStatus := e.Status
	if err = workflow.Enrollment.Check(oldStatus, us.Status, workflow.ActorOf(staff.Role)); err != nil {
		return Enrollment{}, err
	}

	e.Status = us.Status
	if us.Notes != nil {
		e.Notes = core.CleanString(*us.Notes)
	}
	e.UpdatedBy = staff.ID
	e.UpdatedAt = time.Now().UTC()

	if e, err = svc.repo.UpdateEnrollment(ctx, e); err != nil {
		return Enrollment{}, errors.Wrap(err, "saving enrollment")
	}
	if oldStatus != e.Status {
		svc.mailSvc.SendMessages(newUpdatedMessage(owner, e))
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   staff.ID,
		TableName: audit.TableEnrollments,
		RecordID:  e.ID,
		Action:    audit.ActionUpdate,
		OldStatus: oldStatus,
		NewStatus: e.Status,
		Details:   e.Notes,
	})
	return e, err
}

func newUpdatedMessage(owner user.User, e Enrollment) *core.EmailMessage {
	status := strings.ReplaceAll(e.Status, "_", " ")
	return &core.EmailMessage{
		To:           []mail.Address{{Name: owner.FullName, Address: owner.Email}},
		Subject:      "Your enrollment status: " + status,
		TemplateName: "enrollment_updated",
		TemplateData: map[string]interface{}{
			"Name":   owner.FullName,
			"Status": status,
			"Notes":  e.Notes,
		},
	}
}
