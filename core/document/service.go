package document

import (
	"context"
	"net/mail"
	"strings"
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
	ErrNotFound = core.NewNotFoundError("document")

	// ReviewerRoles may approve or reject documents.
	ReviewerRoles = []string{user.RoleAdmin, user.RoleCoach}

	docTypeTag  = "doctype"
	docTypeText = "invalid document type"
)

// InitValidators registers the document validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(docTypeTag, func(fl validator.FieldLevel) bool {
		return core.StringInSlice(fl.Field().String(), Types)
	})
	core.RegisterCustomTranslation(validate, translator, docTypeTag, docTypeText)
}

type (
	Repository interface {
		QueryDocuments(ctx context.Context, filter *QueryFilter) ([]Document, error)
		GetDocument(ctx context.Context, id string) (Document, error)
		GetUserDocument(ctx context.Context, userID, docType string) (Document, error)
		// UpsertDocument inserts d or updates the existing (user_id, document_type) row.
		UpsertDocument(ctx context.Context, d Document) (Document, error)
	}

	ServiceInterface interface {
		Documents(ctx context.Context, filter *QueryFilter) ([]Document, error)
		Get(ctx context.Context, id string) (Document, error)
		// Upload records a new upload of `participant`, replacing a pending or rejected one of the same type.
		Upload(ctx context.Context, participant user.User, nd NewDocument) (Document, error)
		Review(ctx context.Context, reviewer user.User, id string, r Review) (Document, error)
		// Reopen moves an approved document back to submitted and clears its review.
		Reopen(ctx context.Context, admin user.User, id string) (Document, error)
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

func (svc *service) Documents(ctx context.Context, filter *QueryFilter) ([]Document, error) {
	return svc.repo.QueryDocuments(ctx, filter)
}

func (svc *service) Get(ctx context.Context, id string) (Document, error) {
	return svc.repo.GetDocument(ctx, id)
}

func (svc *service) Upload(ctx context.Context, participant user.User, nd NewDocument) (Document, error) {
	if !participant.IsParticipant() {
		return Document{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	d, err := svc.repo.GetUserDocument(ctx, participant.ID, nd.DocumentType)
	if err != nil {
		if !core.IsNotFound(err) {
			return Document{}, errors.Wrap(err, "finding document")
		}
		d = Document{UserID: participant.ID, DocumentType: nd.DocumentType, Status: workflow.DocumentReview.Initial, CreatedAt: now}
	}
	oldStatus := d.Status
	if err = workflow.DocumentReview.Check(oldStatus, workflow.DocumentSubmitted, workflow.ActorParticipant); err != nil {
		return Document{}, err
	}

	d.Status = workflow.DocumentSubmitted
	d.FileURL = nd.FileURL
	d.ReviewedBy = ""
	d.ReviewedAt = nil
	d.UpdatedAt = now

	if d, err = svc.repo.UpsertDocument(ctx, d); err != nil {
		return Document{}, errors.Wrap(err, "saving document")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   participant.ID,
		TableName: audit.TableDocuments,
		RecordID:  d.ID,
		Action:    audit.ActionSubmit,
		OldStatus: oldStatus,
		NewStatus: d.Status,
		Details:   d.DocumentType,
	})
	return d, err
}

func (svc *service) getReviewable(ctx context.Context, reviewer user.User, id string) (Document, user.User, error) {
	d, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, user.User{}, err
	}
	owner, err := svc.users.GetByID(ctx, d.UserID)
	if err != nil {
		return Document{}, user.User{}, errors.Wrap(err, "finding document owner")
	}
	if !reviewer.HasAnyRole(ReviewerRoles...) || !reviewer.CanView(owner) {
		return Document{}, user.User{}, core.ErrPermissionDenied
	}
	return d, owner, nil
}

func (svc *service) Review(ctx context.Context, reviewer user.User, id string, r Review) (Document, error) {
	d, owner, err := svc.getReviewable(ctx, reviewer, id)
	if err != nil {
		return Document{}, err
	}
	oldStatus := d.Status
	if err = workflow.DocumentReview.Check(oldStatus, r.Status, workflow.ActorOf(reviewer.Role)); err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	d.Status = r.Status
	d.ReviewNotes = r.ReviewNotes
	d.ReviewedBy = reviewer.ID
	d.ReviewedAt = &now
	d.UpdatedAt = now

	if d, err = svc.repo.UpsertDocument(ctx, d); err != nil {
		return Document{}, errors.Wrap(err, "saving document")
	}
	svc.mailSvc.SendMessages(core.NewReviewedMessage(
		mail.Address{Name: owner.FullName, Address: owner.Email},
		"document", strings.ReplaceAll(d.DocumentType, "_", " "), d.Status, d.ReviewNotes, "/documents",
	))
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   reviewer.ID,
		TableName: audit.TableDocuments,
		RecordID:  d.ID,
		Action:    audit.ActionReview,
		OldStatus: oldStatus,
		NewStatus: d.Status,
		Details:   d.ReviewNotes,
	})
	return d, err
}

func (svc *service) Reopen(ctx context.Context, admin user.User, id string) (Document, error) {
	if !admin.IsAdmin() {
		return Document{}, core.ErrPermissionDenied
	}
	d, _, err := svc.getReviewable(ctx, admin, id)
	if err != nil {
		return Document{}, err
	}
	oldStatus := d.Status
	if err = workflow.DocumentReview.Check(oldStatus, workflow.DocumentSubmitted, workflow.ActorAdmin); err != nil {
		return Document{}, err
	}

	d.Status = workflow.DocumentSubmitted
	d.ReviewedBy = ""
	d.ReviewedAt = nil
	d.UpdatedAt = time.Now().UTC()

	if d, err = svc.repo.UpsertDocument(ctx, d); err != nil {
		return Document{}, errors.Wrap(err, "saving document")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   admin.ID,
		TableName: audit.TableDocuments,
		RecordID:  d.ID,
		Action:    audit.ActionReopen,
		OldStatus: oldStatus,
		NewStatus: d.Status,
	})
	return d, err
}
