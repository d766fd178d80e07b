package task_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/task"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
	emailsvc "github.com/pathwayhq/pathway/services/email"
	inmemdb "github.com/pathwayhq/pathway/storage/database/inmem"
	"github.com/pathwayhq/pathway/testutil"
)

type fixture struct {
	svc                 task.ServiceInterface
	auditSvc            audit.ServiceInterface
	admin, coach, other user.User
	bob                 user.User
}

func newFixture(t *testing.T) fixture {
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, new(testutil.Logger))
	auditSvc := audit.NewService(inmemdb.NewAuditRepository(db))

	coach := testutil.CreateUser(t, usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	return fixture{
		svc:      task.NewService(inmemdb.NewTaskRepository(db), user.NewService(usrRepo, mailSvc, conf), auditSvc, mailSvc),
		auditSvc: auditSvc,
		admin:    testutil.CreateUser(t, usrRepo, "Ada Admin", "ada@test.io", "", user.RoleAdmin, true),
		coach:    coach,
		other:    testutil.CreateUser(t, usrRepo, "Otto Coach", "otto@test.io", "", user.RoleCoach, true),
		bob:      testutil.CreateParticipant(t, usrRepo, "Bob", "bob@test.io", coach.ID, ""),
	}
}

func TestService_Submit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := false
	tk, err := f.svc.CreateTask(ctx, task.NewTask{Title: "Business plan"})
	require.NoError(t, err)
	old, err := f.svc.CreateTask(ctx, task.NewTask{Title: "Old", IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.coach, tk.ID, task.SubmitTask{})
	assert.True(t, core.IsPermissionDenied(err), "staff cannot submit: %v", err)

	_, err = f.svc.Submit(ctx, f.bob, old.ID, task.SubmitTask{})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "task_id", vErr.Fields[0].Field)

	_, err = f.svc.Submit(ctx, f.bob, "nope", task.SubmitTask{})
	assert.True(t, core.IsNotFound(err))

	first, err := f.svc.Submit(ctx, f.bob, tk.ID, task.SubmitTask{Notes: "v1", AttachmentURL: "https://cdn/plan.pdf"})
	require.NoError(t, err)
	assert.Equal(t, workflow.TaskSubmitted, first.Status)

	second, err := f.svc.Submit(ctx, f.bob, tk.ID, task.SubmitTask{Notes: "v2"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one submission per task")
	assert.Equal(t, "v2", second.Notes)
	assert.Equal(t, "https://cdn/plan.pdf", second.AttachmentURL, "attachment kept without a new upload")

	entries, err := f.auditSvc.Query(ctx, &audit.QueryFilter{RecordID: first.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, workflow.TaskSubmitted, entries[0].OldStatus)
	assert.Equal(t, workflow.TaskNotStarted, entries[1].OldStatus)
}

func TestService_ReviewAndReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk, err := f.svc.CreateTask(ctx, task.NewTask{Title: "Business plan"})
	require.NoError(t, err)
	s, err := f.svc.Submit(ctx, f.bob, tk.ID, task.SubmitTask{Notes: "done"})
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, f.other, s.ID, task.Review{Status: workflow.TaskVerified})
	assert.True(t, core.IsPermissionDenied(err), "unassigned coach: %v", err)
	_, err = f.svc.Review(ctx, f.bob, s.ID, task.Review{Status: workflow.TaskVerified})
	assert.True(t, core.IsPermissionDenied(err), "owner: %v", err)

	rejected, err := f.svc.Review(ctx, f.coach, s.ID, task.Review{Status: workflow.TaskRejected, ReviewNotes: "too short"})
	require.NoError(t, err)
	assert.Equal(t, workflow.TaskRejected, rejected.Status)
	assert.Equal(t, f.coach.ID, rejected.VerifiedBy)

	_, err = f.svc.Reopen(ctx, f.admin, s.ID)
	assert.Error(t, err, "only verified submissions are reopened")

	_, err = f.svc.Submit(ctx, f.bob, tk.ID, task.SubmitTask{Notes: "longer"})
	require.NoError(t, err)
	verified, err := f.svc.Review(ctx, f.admin, s.ID, task.Review{Status: workflow.TaskVerified})
	require.NoError(t, err)
	require.NotNil(t, verified.VerifiedAt)

	_, err = f.svc.Reopen(ctx, f.coach, s.ID)
	assert.True(t, core.IsPermissionDenied(err))

	reopened, err := f.svc.Reopen(ctx, f.admin, s.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.TaskSubmitted, reopened.Status)
	assert.Empty(t, reopened.VerifiedBy)
	assert.Nil(t, reopened.VerifiedAt)
	assert.Equal(t, "longer", reopened.Notes)

	subs, err := f.svc.Submissions(ctx, &task.SubmissionFilter{UserIDs: []string{f.bob.ID}, Status: workflow.TaskSubmitted})
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestService_UpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk, err := f.svc.CreateTask(ctx, task.NewTask{Title: "Plan", DisplayOrder: 4})
	require.NoError(t, err)

	title, inactive := " Business plan ", false
	got, err := f.svc.UpdateTask(ctx, tk.ID, task.UpdateTask{Title: &title, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Business plan", got.Title)
	assert.Equal(t, 4, got.DisplayOrder)
	assert.False(t, got.IsActive)

	active, err := f.svc.Tasks(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = f.svc.UpdateTask(ctx, "nope", task.UpdateTask{Title: &title})
	assert.True(t, core.IsNotFound(err))
}
