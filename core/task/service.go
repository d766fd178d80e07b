package task

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("task")
	ErrSubmissionNotFound = core.NewNotFoundError("task submission")
	ErrInactiveTask       = errors.New("this task is not active")

	// ReviewerRoles may verify or reject submissions.
	ReviewerRoles = []string{user.RoleAdmin, user.RoleCoach}
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks returns tasks ordered by display_order.
		QueryTasks(ctx context.Context, activeOnly bool) ([]Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)

		QuerySubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		GetUserSubmission(ctx context.Context, userID, taskID string) (Submission, error)
		// UpsertSubmission inserts s or updates the existing (user_id, task_id) row.
		UpsertSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	ServiceInterface interface {
		CreateTask(ctx context.Context, nt NewTask) (Task, error)
		Tasks(ctx context.Context, activeOnly bool) ([]Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		UpdateTask(ctx context.Context, id string, ut UpdateTask) (Task, error)

		Submissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		// Submit creates or resubmits `participant`'s submission for the task.
		Submit(ctx context.Context, participant user.User, taskID string, data SubmitTask) (Submission, error)
		Review(ctx context.Context, reviewer user.User, id string, r Review) (Submission, error)
		// Reopen moves a verified submission back to submitted and clears its verification.
		Reopen(ctx context.Context, admin user.User, id string) (Submission, error)
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

func (svc *service) CreateTask(ctx context.Context, nt NewTask) (Task, error) {
	t := Task{
		Title:        nt.Title,
		Description:  nt.Description,
		DisplayOrder: nt.DisplayOrder,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if nt.IsActive != nil {
		t.IsActive = *nt.IsActive
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *service) Tasks(ctx context.Context, activeOnly bool) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, activeOnly)
}

func (svc *service) GetTask(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

func (svc *service) UpdateTask(ctx context.Context, id string, ut UpdateTask) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if ut.Title != nil {
		t.Title = core.CleanString(*ut.Title)
	}
	if ut.Description != nil {
		t.Description = core.CleanString(*ut.Description)
	}
	if ut.DisplayOrder != nil {
		t.DisplayOrder = *ut.DisplayOrder
	}
	if ut.IsActive != nil {
		t.IsActive = *ut.IsActive
	}
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *service) Submissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter)
}

func (svc *service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *service) Submit(ctx context.Context, participant user.User, taskID string, data SubmitTask) (Submission, error) {
	if !participant.IsParticipant() {
		return Submission{}, core.ErrPermissionDenied
	}
	t, err := svc.repo.GetTask(ctx, taskID)
	if err != nil {
		return Submission{}, err
	}
	if !t.IsActive {
		return Submission{}, core.NewValidationError(ErrInactiveTask, core.FieldError{Field: "task_id", Error: ErrInactiveTask.Error()})
	}

	now := time.Now().UTC()
	s, err := svc.repo.GetUserSubmission(ctx, participant.ID, t.ID)
	if err != nil {
		if !core.IsNotFound(err) {
			return Submission{}, errors.Wrap(err, "finding submission")
		}
		s = Submission{UserID: participant.ID, TaskID: t.ID, Status: workflow.TaskReview.Initial, CreatedAt: now}
	}
	oldStatus := s.Status
	if err = workflow.TaskReview.Check(oldStatus, workflow.TaskSubmitted, workflow.ActorParticipant); err != nil {
		return Submission{}, err
	}

	s.Status = workflow.TaskSubmitted
	s.Notes = data.Notes
	if data.AttachmentURL != "" {
		s.AttachmentURL = data.AttachmentURL
	}
	s.SubmittedAt = &now
	s.VerifiedBy = ""
	s.VerifiedAt = nil
	s.UpdatedAt = now

	if s, err = svc.repo.UpsertSubmission(ctx, s); err != nil {
		return Submission{}, errors.Wrap(err, "saving submission")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   participant.ID,
		TableName: audit.TableTaskSubmissions,
		RecordID:  s.ID,
		Action:    audit.ActionSubmit,
		OldStatus: oldStatus,
		NewStatus: s.Status,
		Details:   t.Title,
	})
	return s, err
}

// getReviewable returns the submission with its task and owner once `reviewer` is allowed to act on it.
func (svc *service) getReviewable(ctx context.Context, reviewer user.User, id string) (Submission, Task, user.User, error) {
	s, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, Task{}, user.User{}, err
	}
	owner, err := svc.users.GetByID(ctx, s.UserID)
	if err != nil {
		return Submission{}, Task{}, user.User{}, errors.Wrap(err, "finding submission owner")
	}
	if !reviewer.HasAnyRole(ReviewerRoles...) || !reviewer.CanView(owner) {
		return Submission{}, Task{}, user.User{}, core.ErrPermissionDenied
	}
	t, err := svc.repo.GetTask(ctx, s.TaskID)
	if err != nil {
		return Submission{}, Task{}, user.User{}, errors.Wrap(err, "finding task")
	}
	return s, t, owner, nil
}

func (svc *service) Review(ctx context.Context, reviewer user.User, id string, r Review) (Submission, error) {
	s, t, owner, err := svc.getReviewable(ctx, reviewer, id)
	if err != nil {
		return Submission{}, err
	}
	oldStatus := s.Status
	if err = workflow.TaskReview.Check(oldStatus, r.Status, workflow.ActorOf(reviewer.Role)); err != nil {
		return Submission{}, err
	}

	now := time.Now().UTC()
	s.Status = r.Status
	s.ReviewNotes = r.ReviewNotes
	s.VerifiedBy = reviewer.ID
	s.VerifiedAt = &now
	s.UpdatedAt = now

	if s, err = svc.repo.UpsertSubmission(ctx, s); err != nil {
		return Submission{}, errors.Wrap(err, "saving submission")
	}
	svc.mailSvc.SendMessages(core.NewReviewedMessage(
		mail.Address{Name: owner.FullName, Address: owner.Email}, "task", t.Title, s.Status, s.ReviewNotes, "/tasks",
	))
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   reviewer.ID,
		TableName: audit.TableTaskSubmissions,
		RecordID:  s.ID,
		Action:    audit.ActionReview,
		OldStatus: oldStatus,
		NewStatus: s.Status,
		Details:   s.ReviewNotes,
	})
	return s, err
}

func (svc *service) Reopen(ctx context.Context, admin user.User, id string) (Submission, error) {
	if !admin.IsAdmin() {
		return Submission{}, core.ErrPermissionDenied
	}
	s, _, _, err := svc.getReviewable(ctx, admin, id)
	if err != nil {
		return Submission{}, err
	}
	oldStatus := s.Status
	if err = workflow.TaskReview.Check(oldStatus, workflow.TaskSubmitted, workflow.ActorAdmin); err != nil {
		return Submission{}, err
	}

	s.Status = workflow.TaskSubmitted
	s.VerifiedBy = ""
	s.VerifiedAt = nil
	s.UpdatedAt = time.Now().UTC()

	if s, err = svc.repo.UpsertSubmission(ctx, s); err != nil {
		return Submission{}, errors.Wrap(err, "saving submission")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   admin.ID,
		TableName: audit.TableTaskSubmissions,
		RecordID:  s.ID,
		Action:    audit.ActionReopen,
		OldStatus: oldStatus,
		NewStatus: s.Status,
	})
	return s, err
}
