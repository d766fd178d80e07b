package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/pathwayhq/pathway/apps/api/echo"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/testutil"
)

const strongPwd = "Gr8-Journey!2024"

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Ada Admin", "ada@test.io", strongPwd, user.RoleAdmin, true)
	testutil.CreateUser(t, env.usrRepo, "Gone Guy", "gone@test.io", strongPwd, user.RoleCoach, false)

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: marshalObj(t, echoapi.LoginRequest{}),
			wantData: marshalObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, echoapi.LoginRequest{Email: "ada@test.io", Password: "nope"}),
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marshalObj(t, echoapi.LoginRequest{Email: "who@test.io", Password: strongPwd}),
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", wantCode: http.StatusForbidden,
			body:     marshalObj(t, echoapi.LoginRequest{Email: "gone@test.io", Password: strongPwd}),
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/login"
	}
	runTests(t, env, tests)

	t.Run("success (email is case insensitive)", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/users/login", "", marshalObj(t, echoapi.LoginRequest{Email: " ADA@test.io ", Password: strongPwd}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		usr, err := env.deps.UserSvc.GetByEmail(context.Background(), "ada@test.io")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero(), "last login should be set")
	})
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.usrRepo, "Ada Admin", "ada@test.io", "", user.RoleAdmin, true)
	coach := testutil.CreateUser(t, env.usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	finance := testutil.CreateUser(t, env.usrRepo, "Fay Finance", "fay@test.io", "", user.RoleFinance, true)
	bob := testutil.CreateParticipant(t, env.usrRepo, "Bob", "bob@test.io", coach.ID, "2024-A")
	eve := testutil.CreateParticipant(t, env.usrRepo, "Eve", "eve@test.io", "", "2024-B")

	path := func(params ...string) string {
		v := make(url.Values)
		for i := 0; i+1 < len(params); i += 2 {
			v.Add(params[i], params[i+1])
		}
		return "/v1/users?" + v.Encode()
	}
	adminToken := getToken(t, env.conf, admin)

	runTests(t, env, []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "admin sees everybody", path: "/v1/users", token: adminToken, wantData: marshalList(t, admin, bob, coach, eve, finance)},
		{name: "participant sees themselves", path: "/v1/users", token: getToken(t, env.conf, eve), wantData: marshalList(t, eve)},
		{name: "coach sees their participants", path: "/v1/users", token: getToken(t, env.conf, coach), wantData: marshalList(t, bob)},
		{name: "finance sees every participant", path: "/v1/users", token: getToken(t, env.conf, finance), wantData: marshalList(t, bob, eve)},
		{name: "role filter", path: path("role", user.RoleCoach), token: adminToken, wantData: marshalList(t, coach)},
		{name: "search", path: path("search", "EVE"), token: adminToken, wantData: marshalList(t, eve)},
		{name: "search (unknown)", path: path("search", "lol"), token: adminToken, wantData: marshalList(t)},
		{name: "batch filter", path: path("batch", "2024-A"), token: adminToken, wantData: marshalList(t, bob)},
		{name: "ordering", path: path("ordering", "-full_name"), token: adminToken, wantData: marshalList(t, finance, eve, coach, bob, admin)},
		{
			name: "invalid date", path: path("created_from", "yesterday"), token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"created_from": "invalid date, expected YYYY-MM-DD"}),
		},
	})
}

func Test_userApi_retrieve(t *testing.T) {
	env := setup(t)
	coach := testutil.CreateUser(t, env.usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	bob := testutil.CreateParticipant(t, env.usrRepo, "Bob", "bob@test.io", coach.ID, "")
	eve := testutil.CreateParticipant(t, env.usrRepo, "Eve", "eve@test.io", "", "")
	coachToken := getToken(t, env.conf, coach)

	runTests(t, env, []httpTest{
		{name: "coach sees assigned participant", path: "/v1/users/" + bob.ID, token: coachToken, wantData: marshalObj(t, bob)},
		{
			name: "coach does not see other participants", path: "/v1/users/" + eve.ID, token: coachToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "not found"}),
		},
		{name: "participant sees themselves", path: "/v1/users/" + eve.ID, token: getToken(t, env.conf, eve), wantData: marshalObj(t, eve)},
		{name: "me", path: "/v1/users/me", token: getToken(t, env.conf, bob), wantData: marshalObj(t, bob)},
		{name: "unknown user", path: "/v1/users/nope", token: coachToken, wantCode: http.StatusNotFound},
	})
}

func Test_userApi_update(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.usrRepo, "Ada Admin", "ada@test.io", "", user.RoleAdmin, true)
	coach := testutil.CreateUser(t, env.usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	bob := testutil.CreateParticipant(t, env.usrRepo, "Bob", "bob@test.io", coach.ID, "")
	eve := testutil.CreateParticipant(t, env.usrRepo, "Eve", "eve@test.io", "", "")
	bobToken := getToken(t, env.conf, bob)
	batch := "2024-C"

	runTests(t, env, []httpTest{
		{
			name: "participant cannot change their role", method: http.MethodPut, path: "/v1/users/" + bob.ID, token: bobToken,
			body: marshalObj(t, user.UpdateUser{Role: user.RoleAdmin}), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "only admins can change the role, status, batch, coach or email"}),
		},
		{
			name: "coach cannot edit their participant", method: http.MethodPut, path: "/v1/users/" + bob.ID,
			token: getToken(t, env.conf, coach), body: marshalObj(t, user.UpdateUser{FullName: "Bobby"}), wantCode: http.StatusForbidden,
		},
		{
			name: "email taken", method: http.MethodPut, path: "/v1/users/" + bob.ID, token: getToken(t, env.conf, admin),
			body: marshalObj(t, user.UpdateUser{Email: "eve@test.io"}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
	})

	t.Run("participant updates their name", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/users/"+bob.ID, bobToken, marshalObj(t, user.UpdateUser{FullName: " Bobby "}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		unmarshal(t, rec, &got)
		assert.Equal(t, "Bobby", got.FullName)
		assert.Equal(t, user.RoleParticipant, got.Role)
	})

	t.Run("admin moves a participant", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/users/"+eve.ID, getToken(t, env.conf, admin), marshalObj(t, user.UpdateUser{Batch: &batch, CoachID: &coach.ID}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		unmarshal(t, rec, &got)
		assert.Equal(t, batch, got.Batch)
		assert.Equal(t, coach.ID, got.CoachID)
	})
}

func Test_userApi_adminEndpoints(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.usrRepo, "Ada Admin", "ada@test.io", "", user.RoleAdmin, true)
	coach := testutil.CreateUser(t, env.usrRepo, "Cole Coach", "cole@test.io", "", user.RoleCoach, true)
	bob := testutil.CreateParticipant(t, env.usrRepo, "Bob", "bob@test.io", "", "")
	eve := testutil.CreateParticipant(t, env.usrRepo, "Eve", "eve@test.io", "", "")
	adminToken := getToken(t, env.conf, admin)
	forbidden := marshalObj(t, httpErr{Error: "permission denied"})

	runTests(t, env, []httpTest{
		{name: "roles (admin only)", path: "/v1/users/roles", token: getToken(t, env.conf, coach), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "roles", path: "/v1/users/roles", token: adminToken, wantData: marshalObj(t, user.Roles)},
		{
			name: "assign a non coach", method: http.MethodPut, path: "/v1/users/" + bob.ID + "/coach", token: adminToken,
			body: marshalObj(t, echoapi.AssignCoachRequest{CoachID: eve.ID}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"coach_id": user.ErrInvalidCoach.Error()}),
		},
		{name: "no suicide", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{
			name: "no suicide (bulk)", method: http.MethodDelete, path: "/v1/users?id=" + bob.ID + "&id=" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden,
		},
	})

	t.Run("register", func(t *testing.T) {
		nu := user.NewUser{
			FullName: "New Comer", Email: "new@test.io", Role: user.RoleParticipant, CoachID: coach.ID,
			Password: strongPwd, PasswordConfirm: strongPwd,
		}
		rec := env.do(http.MethodPost, "/v1/users/register", adminToken, marshalObj(t, nu))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var got user.User
		unmarshal(t, rec, &got)
		assert.Equal(t, coach.ID, got.CoachID)
		assert.Regexp(t, `^PW-[0-9A-F]{8}$`, got.UniqueID)

		rec = env.do(http.MethodPost, "/v1/users/register", adminToken, marshalObj(t, nu))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("assign coach", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/users/"+bob.ID+"/coach", adminToken, marshalObj(t, echoapi.AssignCoachRequest{CoachID: coach.ID}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		unmarshal(t, rec, &got)
		assert.Equal(t, coach.ID, got.CoachID)
	})

	t.Run("bulk batch update", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/users/batch", adminToken, marshalObj(t, user.BulkBatchUpdate{IDs: []string{bob.ID, eve.ID}, Batch: "2025-A"}))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		for _, id := range []string{bob.ID, eve.ID} {
			usr, err := env.deps.UserSvc.GetByID(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, "2025-A", usr.Batch)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/v1/users/"+eve.ID, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		_, err := env.deps.UserSvc.GetByID(context.Background(), eve.ID)
		assert.Error(t, err)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	naughty := testutil.CreateUser(t, env.usrRepo, "N Dog", "ndog@test.io", "", user.RoleParticipant, false)
	bob := testutil.CreateParticipant(t, env.usrRepo, "Bob", "bob@test.io", "", "")

	now := time.Now()
	unrefreshableClaims := echoapi.GetUserClaims(env.conf, bob, now.Add(-2*env.conf.Server.JWTRefreshExpirationDelta).Unix())
	unrefreshableToken, err := echoapi.GenerateToken(env.conf, unrefreshableClaims)
	require.NoError(t, err)

	expiredClaims := echoapi.GetUserClaims(env.conf, bob)
	expiredClaims.StandardClaims = jwt.StandardClaims{Subject: bob.ID, ExpiresAt: now.Add(-time.Minute).Unix()}
	expiredToken, err := echoapi.GenerateToken(env.conf, expiredClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "expired token", token: expiredToken, wantCode: http.StatusUnauthorized},
		{name: "inactive user not allowed", token: getToken(t, env.conf, naughty), wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"})},
		{name: "refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "refresh has expired"})},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/token-refresh"
	}
	runTests(t, env, tests)

	t.Run("token refreshed", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/users/token-refresh", getToken(t, env.conf, bob))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	bob := testutil.CreateParticipant(t, env.usrRepo, "Bob", "bob@test.io", "", "")
	success := marshalObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	runTests(t, env, []httpTest{
		{
			name: "required email", method: http.MethodPost, path: "/v1/users/password-reset", body: marshalObj(t, echoapi.PasswordResetRequest{}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "unknown email (no leak)", method: http.MethodPost, path: "/v1/users/password-reset",
			body: marshalObj(t, echoapi.PasswordResetRequest{Email: "who@test.io"}), wantData: success,
		},
	})
	assert.Empty(t, env.mailSvc.SentMessages())

	rec := env.do(http.MethodPost, "/v1/users/password-reset", "", marshalObj(t, echoapi.PasswordResetRequest{Email: bob.Email}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := env.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, bob.Email, sent[0].To[0].Address)
}

func Test_userApi_avatar(t *testing.T) {
	env := setup(t)
	bob := testutil.CreateParticipant(t, env.usrRepo, "Bob", "bob@test.io", "", "")
	token := getToken(t, env.conf, bob)

	t.Run("not an image", func(t *testing.T) {
		body, ctype := testutil.Multipart(t, nil, testutil.File{Name: "cv.pdf", Content: testutil.PDF})
		rec := env.doMultipart(http.MethodPut, "/v1/users/me/avatar", token, body, ctype)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"file": "unsupported file type"}`, rec.Body.String())
	})

	t.Run("missing file", func(t *testing.T) {
		body, ctype := testutil.Multipart(t, nil)
		rec := env.doMultipart(http.MethodPut, "/v1/users/me/avatar", token, body, ctype)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"file": "this field is required"}`, rec.Body.String())
	})

	t.Run("uploaded", func(t *testing.T) {
		body, ctype := testutil.Multipart(t, nil, testutil.File{Name: "Me.PNG", Content: testutil.PNG})
		rec := env.doMultipart(http.MethodPut, "/v1/users/me/avatar", token, body, ctype)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		unmarshal(t, rec, &got)
		assert.Regexp(t, `/`+bob.ID+`/avatars/[0-9a-f-]{36}\.png$`, got.AvatarURL)
	})
}
