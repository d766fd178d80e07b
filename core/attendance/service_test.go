package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
	emailsvc "github.com/pathwayhq/pathway/services/email"
	inmemdb "github.com/pathwayhq/pathway/storage/database/inmem"
	"github.com/pathwayhq/pathway/testutil"
)

// failingRepository fails to write the records of one user.
type failingRepository struct {
	attendance.Repository
	userID string
}

func (repo failingRepository) UpsertRecord(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	if r.UserID == repo.userID {
		return attendance.Record{}, errors.New("connection reset")
	}
	return repo.Repository.UpsertRecord(ctx, r)
}

type fixture struct {
	db      *inmemdb.DB
	users   user.ServiceInterface
	auditor audit.ServiceInterface
	logger  *testutil.Logger

	admin, coach, finance user.User
	bob, eve              user.User
}

func newFixture(t *testing.T) fixture {
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	logger := new(testutil.Logger)
	coach := testutil.CreateUser(t, usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	return fixture{
		db:      db,
		users:   user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf, logger), conf),
		auditor: audit.NewService(inmemdb.NewAuditRepository(db)),
		logger:  logger,
		admin:   testutil.CreateUser(t, usrRepo, "Ada Admin", "ada@test.io", "", user.RoleAdmin, true),
		coach:   coach,
		finance: testutil.CreateUser(t, usrRepo, "Fay Finance", "fay@test.io", "", user.RoleFinance, true),
		bob:     testutil.CreateParticipant(t, usrRepo, "Bob", "bob@test.io", coach.ID, "2024-A"),
		eve:     testutil.CreateParticipant(t, usrRepo, "Eve", "eve@test.io", "", "2024-A"),
	}
}

func TestService_BulkMark(t *testing.T) {
	f := newFixture(t)
	svc := attendance.NewService(inmemdb.NewAttendanceRepository(f.db), f.users, f.auditor, f.logger)
	ctx := context.Background()

	bm := attendance.BulkMark{
		Date: "2024-05-02",
		Records: []attendance.Mark{
			{UserID: f.bob.ID, Status: attendance.StatusPresent},
			{UserID: f.eve.ID, Status: attendance.StatusAbsent, Notes: "sick"},
		},
	}
	_, err := svc.BulkMark(ctx, f.finance, bm)
	assert.True(t, core.IsPermissionDenied(err))
	_, err = svc.BulkMark(ctx, f.coach, bm)
	assert.True(t, core.IsPermissionDenied(err), "eve is not coached by cole")

	_, err = svc.BulkMark(ctx, f.admin, attendance.BulkMark{
		Date:    bm.Date,
		Records: []attendance.Mark{{UserID: f.coach.ID, Status: attendance.StatusPresent}},
	})
	assert.True(t, core.IsPermissionDenied(err), "only participants are marked")

	records, err := svc.BulkMark(ctx, f.admin, bm)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, f.admin.ID, records[1].MarkedBy)

	late, err := svc.BulkMark(ctx, f.coach, attendance.BulkMark{
		Date:    bm.Date,
		Records: []attendance.Mark{{UserID: f.bob.ID, Status: attendance.StatusLate}},
	})
	require.NoError(t, err)
	assert.Equal(t, records[0].ID, late[0].ID, "one record per participant and day")

	got, err := svc.Records(ctx, &attendance.QueryFilter{UserIDs: []string{f.bob.ID}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, attendance.StatusLate, got[0].Status)
	assert.Equal(t, f.coach.ID, got[0].MarkedBy)

	entries, err := f.auditor.Query(ctx, &audit.QueryFilter{TableName: audit.TableAttendance})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestService_BulkMark_partialFailure(t *testing.T) {
	f := newFixture(t)
	repo := failingRepository{Repository: inmemdb.NewAttendanceRepository(f.db), userID: f.eve.ID}
	svc := attendance.NewService(repo, f.users, f.auditor, f.logger)
	ctx := context.Background()

	records, err := svc.BulkMark(ctx, f.admin, attendance.BulkMark{
		Date: "2024-05-02",
		Records: []attendance.Mark{
			{UserID: f.bob.ID, Status: attendance.StatusPresent},
			{UserID: f.eve.ID, Status: attendance.StatusPresent},
		},
	})
	assert.Equal(t, attendance.ErrBulkMarkFail, err)
	require.Len(t, records, 1)
	assert.Equal(t, f.bob.ID, records[0].UserID)
	assert.Len(t, f.logger.Errors(), 1)

	got, err := svc.Records(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1, "earlier marks stay applied")
}
