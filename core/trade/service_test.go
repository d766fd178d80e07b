package trade_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/trade"
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
	svc := trade.NewService(
		inmemdb.NewTradeRepository(db), user.NewService(usrRepo, mailSvc, conf),
		audit.NewService(inmemdb.NewAuditRepository(db)), mailSvc,
	)
	ctx := context.Background()

	admin := testutil.CreateUser(t, usrRepo, "Ada Admin", "ada@test.io", "", user.RoleAdmin, true)
	coach := testutil.CreateUser(t, usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	bob := testutil.CreateParticipant(t, usrRepo, "Bob", "bob@test.io", coach.ID, "")

	nt := trade.NewTrade{
		TradeType: trade.TypeExport,
		Product:   "Cocoa",
		Country:   "France",
		Amount:    1250.5,
		Currency:  "EUR",
		Date:      "2024-05-02",
	}

	_, err := svc.Create(ctx, bob, nt)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.FieldError{{Field: "file", Error: trade.ErrMissingAttachment.Error()}}, vErr.Fields)

	nt.AttachmentURL = "https://cdn/receipt.png"
	_, err = svc.Create(ctx, coach, nt)
	assert.True(t, core.IsPermissionDenied(err))

	tr, err := svc.Create(ctx, bob, nt)
	require.NoError(t, err)
	assert.Equal(t, workflow.TradePending, tr.Status)
	assert.Equal(t, time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), tr.TradeDate)

	_, err = svc.Reopen(ctx, admin, tr.ID)
	assert.Error(t, err, "only approved trades are reopened")

	approved, err := svc.Review(ctx, coach, tr.ID, trade.Review{Status: workflow.TradeApproved, ReviewNotes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, coach.ID, approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)

	_, err = svc.Review(ctx, coach, tr.ID, trade.Review{Status: workflow.TradeRejected})
	assert.Error(t, err, "approved is final for reviewers")

	_, err = svc.Reopen(ctx, coach, tr.ID)
	assert.True(t, core.IsPermissionDenied(err))
	reopened, err := svc.Reopen(ctx, admin, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.TradePending, reopened.Status)
	assert.Empty(t, reopened.ReviewedBy)
	assert.Nil(t, reopened.ReviewedAt)

	got, err := svc.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, reopened, got)

	_, err = svc.Get(ctx, "nope")
	assert.True(t, core.IsNotFound(err))
}
