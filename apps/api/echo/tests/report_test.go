package tests

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/report"
	"github.com/pathwayhq/pathway/core/workflow"
)

func Test_reportApi(t *testing.T) {
	env := setup(t)
	u := createWorkflowUsers(t, env)
	ctx := context.Background()
	coachToken := getToken(t, env.conf, u.coach)
	adminToken := getToken(t, env.conf, u.admin)

	_, err := env.deps.AttendanceSvc.BulkMark(ctx, u.admin, attendance.BulkMark{
		Date: "2024-05-02",
		Records: []attendance.Mark{
			{UserID: u.bob.ID, Status: attendance.StatusPresent},
			{UserID: u.eve.ID, Status: attendance.StatusAbsent},
		},
	})
	require.NoError(t, err)
	_, err = env.deps.JourneySvc.UpdateProgress(ctx, u.finance, u.bob, stageByName(t, journey.StageFeesPaid).ID,
		journey.UpdateProgress{Status: workflow.ProgressCompleted})
	require.NoError(t, err)

	runTests(t, env, []httpTest{
		{name: "participants have no reports", path: "/v1/reports/attendance", token: getToken(t, env.conf, u.bob), wantCode: http.StatusForbidden},
		{name: "coaches have no finance report", path: "/v1/reports/finance", token: coachToken, wantCode: http.StatusForbidden},
		{name: "finance has no e-commerce report", path: "/v1/reports/ecommerce", token: getToken(t, env.conf, u.finance), wantCode: http.StatusForbidden},
		{
			name: "invalid period", path: "/v1/reports/attendance?from=May", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"from": "invalid date, expected YYYY-MM-DD"}),
		},
	})

	t.Run("attendance of the coached participants", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/reports/attendance?from=2024-05-01&to=2024-05-03", coachToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var rows []report.AttendanceRow
		unmarshal(t, rec, &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, u.bob.ID, rows[0].UserID)
		assert.Equal(t, 1, rows[0].Present)
		assert.Equal(t, 3, rows[0].TotalDays)
		assert.Equal(t, 33.3, rows[0].AttendanceRate)
	})

	t.Run("finance by batch", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/reports/finance?batch=2024-A", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var rows []report.FinanceRow
		unmarshal(t, rec, &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, report.FinanceRow{Batch: "2024-A", Participants: 2, Paid: 1, Unpaid: 1, PaidRate: 50}, rows[0])
	})

	t.Run("csv export in french", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/reports/attendance?format=csv&lang=fr&from=2024-05-01&to=2024-05-03", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "fr", rec.Header().Get("Content-Language"))
		wantFile := "attendance-" + time.Now().UTC().Format("20060102") + ".csv"
		assert.Equal(t, `attachment; filename="`+wantFile+`"`, rec.Header().Get("Content-Disposition"))

		records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "Nom complet", records[0][0])
		assert.Equal(t, "Taux de présence (%)", records[0][len(records[0])-1])
		assert.Equal(t, []string{"Bob", u.bob.UniqueID, "2024-A", "1", "0", "0", "0", "3", "33.3"}, records[1])
		assert.Equal(t, "Eve", records[2][0])
	})

	t.Run("csv export follows Accept-Language", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/stages?format=csv", adminToken)
		req.Header.Set("Accept-Language", "de-DE, en;q=0.8")
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "en", rec.Header().Get("Content-Language"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "Stage,"), rec.Body.String())
	})
}
