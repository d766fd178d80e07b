package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/workflow"
)

func stageByName(t *testing.T, name string) journey.Stage {
	for _, s := range journey.DefaultStages {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no stage named %q", name)
	return journey.Stage{}
}

func Test_journeyApi(t *testing.T) {
	env := setup(t)
	u := createWorkflowUsers(t, env)
	fees := stageByName(t, journey.StageFeesPaid)
	orientation := stageByName(t, journey.StageOrientation)
	financeToken := getToken(t, env.conf, u.finance)
	coachToken := getToken(t, env.conf, u.coach)
	forbidden := marshalObj(t, httpErr{Error: "permission denied"})

	progressPath := func(userID string, stage journey.Stage) string {
		return "/v1/journey/" + userID + "/" + stage.ID
	}
	completed := marshalObj(t, journey.UpdateProgress{Status: workflow.ProgressCompleted})

	runTests(t, env, []httpTest{
		{name: "stages", path: "/v1/journey/stages", token: getToken(t, env.conf, u.bob), wantData: marshalObj(t, journey.DefaultStages)},
		{
			name: "finance cannot complete orientation", method: http.MethodPut, path: progressPath(u.bob.ID, orientation),
			token: financeToken, body: completed, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "coach cannot mark fees paid", method: http.MethodPut, path: progressPath(u.bob.ID, fees),
			token: coachToken, body: completed, wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "coach does not see unassigned participants", method: http.MethodPut, path: progressPath(u.eve.ID, orientation),
			token: coachToken, body: completed, wantCode: http.StatusNotFound,
		},
		{
			name: "participant cannot update their own progress", method: http.MethodPut, path: progressPath(u.bob.ID, orientation),
			token: getToken(t, env.conf, u.bob), body: completed, wantCode: http.StatusForbidden,
		},
		{
			name: "invalid status", method: http.MethodPut, path: progressPath(u.bob.ID, orientation),
			token: coachToken, body: marshalObj(t, journey.UpdateProgress{Status: "done"}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"status": "invalid value"}),
		},
		{
			name: "unknown stage", method: http.MethodPut, path: "/v1/journey/" + u.bob.ID + "/nope",
			token: coachToken, body: completed, wantCode: http.StatusNotFound,
		},
	})

	t.Run("finance marks fees paid", func(t *testing.T) {
		rec := env.do(http.MethodPut, progressPath(u.bob.ID, fees), financeToken, completed)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p journey.Progress
		unmarshal(t, rec, &p)
		assert.Equal(t, workflow.ProgressCompleted, p.Status)
		assert.NotNil(t, p.StartedAt)
		assert.NotNil(t, p.CompletedAt)
		assert.Equal(t, u.finance.ID, p.UpdatedBy)
	})

	t.Run("coach starts orientation", func(t *testing.T) {
		rec := env.do(http.MethodPut, progressPath(u.bob.ID, orientation), coachToken,
			marshalObj(t, journey.UpdateProgress{Status: workflow.ProgressInProgress}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p journey.Progress
		unmarshal(t, rec, &p)
		assert.NotNil(t, p.StartedAt)
		assert.Nil(t, p.CompletedAt)
	})

	t.Run("journey as seen by the coach", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/journey/"+u.bob.ID, coachToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var stages []journey.StageProgress
		unmarshal(t, rec, &stages)
		require.Len(t, stages, len(journey.DefaultStages))
		for _, sp := range stages {
			assert.Equal(t, journey.CanMutateStage(u.coach.Role, sp.Stage.Name), sp.CanEdit, sp.Stage.Name)
			switch sp.Stage.ID {
			case fees.ID:
				assert.Equal(t, workflow.ProgressCompleted, sp.Status)
			case orientation.ID:
				assert.Equal(t, workflow.ProgressInProgress, sp.Status)
			default:
				assert.Equal(t, workflow.ProgressNotStarted, sp.Status)
				assert.Nil(t, sp.Progress)
			}
		}
	})

	t.Run("progress listing is scoped", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/journey?status=completed", coachToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var rows []journey.Progress
		unmarshal(t, rec, &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, fees.ID, rows[0].StageID)

		rec = env.do(http.MethodGet, "/v1/journey", getToken(t, env.conf, u.eve))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("reset to not started", func(t *testing.T) {
		rec := env.do(http.MethodPut, progressPath(u.bob.ID, orientation), getToken(t, env.conf, u.admin),
			marshalObj(t, journey.UpdateProgress{Status: workflow.ProgressNotStarted}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p journey.Progress
		unmarshal(t, rec, &p)
		assert.Nil(t, p.StartedAt)
		assert.Nil(t, p.CompletedAt)
	})
}

func Test_attendanceApi(t *testing.T) {
	env := setup(t)
	u := createWorkflowUsers(t, env)
	coachToken := getToken(t, env.conf, u.coach)
	adminToken := getToken(t, env.conf, u.admin)

	mark := func(date string, records ...attendance.Mark) []byte {
		return marshalObj(t, attendance.BulkMark{Date: date, Records: records})
	}

	runTests(t, env, []httpTest{
		{
			name: "finance cannot mark", method: http.MethodPost, path: "/v1/attendance/bulk", token: getToken(t, env.conf, u.finance),
			body: mark("2024-05-02", attendance.Mark{UserID: u.bob.ID, Status: attendance.StatusPresent}), wantCode: http.StatusForbidden,
		},
		{
			name: "coach cannot mark unassigned participants", method: http.MethodPost, path: "/v1/attendance/bulk", token: coachToken,
			body: mark("2024-05-02", attendance.Mark{UserID: u.bob.ID, Status: attendance.StatusPresent},
				attendance.Mark{UserID: u.eve.ID, Status: attendance.StatusPresent}),
			wantCode: http.StatusForbidden,
		},
		{
			name: "invalid status", method: http.MethodPost, path: "/v1/attendance/bulk", token: coachToken,
			body:     mark("2024-05-02", attendance.Mark{UserID: u.bob.ID, Status: "sleeping"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"status": "invalid value"}),
		},
		{
			name: "no records", method: http.MethodPost, path: "/v1/attendance/bulk", token: coachToken,
			body: mark("2024-05-02"), wantCode: http.StatusBadRequest,
		},
		{name: "nothing marked yet", path: "/v1/attendance", token: coachToken, wantData: marshalList(t)},
	})

	t.Run("marks & remarks a day", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/attendance/bulk", adminToken, mark("2024-05-02",
			attendance.Mark{UserID: u.bob.ID, Status: attendance.StatusAbsent},
			attendance.Mark{UserID: u.eve.ID, Status: "Late", Notes: " traffic "},
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var records []attendance.Record
		unmarshal(t, rec, &records)
		require.Len(t, records, 2)
		assert.Equal(t, attendance.StatusLate, records[1].Status)
		assert.Equal(t, "traffic", records[1].Notes)

		rec = env.do(http.MethodPost, "/v1/attendance/bulk", coachToken, mark("2024-05-02",
			attendance.Mark{UserID: u.bob.ID, Status: attendance.StatusPresent},
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var remarked []attendance.Record
		unmarshal(t, rec, &remarked)
		require.Len(t, remarked, 1)
		assert.Equal(t, records[0].ID, remarked[0].ID)
		assert.Equal(t, u.coach.ID, remarked[0].MarkedBy)
	})

	t.Run("query", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/attendance?from=2024-05-01&to=2024-05-31", coachToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var records []attendance.Record
		unmarshal(t, rec, &records)
		require.Len(t, records, 1)
		assert.Equal(t, u.bob.ID, records[0].UserID)
		assert.Equal(t, attendance.StatusPresent, records[0].Status)

		rec = env.do(http.MethodGet, "/v1/attendance?from=2024-06-01", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}
