package enrollment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/enrollment"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
	emailsvc "github.com/pathwayhq/pathway/services/email"
	inmemdb "github.com/pathwayhq/pathway/storage/database/inmem"
	"github.com/pathwayhq/pathway/testutil"
)

func TestService(t *testing.T) {
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, new(testutil.Logger))
	svc := enrollment.NewService(
		inmemdb.NewEnrollmentRepository(db), user.NewService(usrRepo, mailSvc, conf),
		audit.NewService(inmemdb.NewAuditRepository(db)), mailSvc,
	)
	ctx := context.Background()

	finance := testutil.CreateUser(t, usrRepo, "Fay Finance", "fay@test.io", "", user.RoleFinance, true)
	ecom := testutil.CreateUser(t, usrRepo, "Eli Ecom", "eli@test.io", "", user.RoleEcommerce, true)
	coach := testutil.CreateUser(t, usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	bob := testutil.CreateParticipant(t, usrRepo, "Bob", "bob@test.io", "", "")

	_, err := svc.Create(ctx, finance, enrollment.NewEnrollment{})
	assert.True(t, core.IsPermissionDenied(err))

	e, err := svc.Create(ctx, bob, enrollment.NewEnrollment{Notes: "hello"})
	require.NoError(t, err)
	assert.Equal(t, workflow.EnrollmentSubmitted, e.Status)
	assert.Equal(t, []string{}, e.DocumentURLs)

	_, err = svc.Create(ctx, bob, enrollment.NewEnrollment{})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "user_id", vErr.Fields[0].Field)

	_, err = svc.MarkDocumentsSent(ctx, bob, enrollment.DocumentsSent{})
	require.ErrorAs(t, err, &vErr, "staff must send the documents first")
	assert.Equal(t, "status", vErr.Fields[0].Field)

	_, err = svc.SetStatus(ctx, ecom, e.ID, enrollment.UpdateStatus{Status: workflow.EnrollmentDocumentsSentToUser})
	assert.True(t, core.IsPermissionDenied(err))
	_, err = svc.SetStatus(ctx, coach, e.ID, enrollment.UpdateStatus{Status: workflow.EnrollmentDocumentsSentToUser})
	assert.True(t, core.IsPermissionDenied(err), "bob has no coach")

	notes := " signed copies attached "
	e, err = svc.SetStatus(ctx, finance, e.ID, enrollment.UpdateStatus{Status: workflow.EnrollmentDocumentsSentToUser, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "signed copies attached", e.Notes)
	assert.Equal(t, finance.ID, e.UpdatedBy)

	e, err = svc.MarkDocumentsSent(ctx, bob, enrollment.DocumentsSent{DocumentURLs: []string{"https://cdn/a.pdf"}})
	require.NoError(t, err)
	assert.Equal(t, workflow.EnrollmentDocumentsSentToOffice, e.Status)
	assert.Equal(t, []string{"https://cdn/a.pdf"}, e.DocumentURLs)
	assert.Equal(t, "signed copies attached", e.Notes, "empty notes keep the previous ones")

	e, err = svc.SetStatus(ctx, finance, e.ID, enrollment.UpdateStatus{Status: workflow.EnrollmentSubmitted})
	require.NoError(t, err, "staff select any status")
	assert.Equal(t, workflow.EnrollmentSubmitted, e.Status)

	got, err := svc.GetByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = svc.GetByUser(ctx, finance.ID)
	assert.True(t, core.IsNotFound(err))
}
