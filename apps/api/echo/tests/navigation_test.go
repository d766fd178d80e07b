package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/pathwayhq/pathway/apps/api/echo"
	"github.com/pathwayhq/pathway/core/navigation"
	"github.com/pathwayhq/pathway/core/user"
)

func Test_navigationApi_access(t *testing.T) {
	env := setup(t)
	u := createWorkflowUsers(t, env)

	access := func(p string) string { return "/v1/navigation/access?path=" + url.QueryEscape(p) }
	allowed := func(ok bool, reason string) []byte {
		return marshalObj(t, echoapi.AccessResponse{Allowed: ok, Reason: reason})
	}

	runTests(t, env, []httpTest{
		{name: "anonymous on a public page", path: access("/auth"), wantData: allowed(true, navigation.AccessOK)},
		{name: "anonymous on a protected page", path: access("/dashboard"), wantData: allowed(false, navigation.AccessDenied)},
		{name: "unknown page", path: access("/nowhere"), wantData: allowed(false, navigation.AccessNotFound)},
		{name: "participant on the journey", path: access("/Journey/?tab=1"), token: getToken(t, env.conf, u.bob), wantData: allowed(true, navigation.AccessOK)},
		{name: "participant on the admin", path: access("/admin"), token: getToken(t, env.conf, u.bob), wantData: allowed(false, navigation.AccessDenied)},
		{name: "finance on the finance page", path: access("/finance"), token: getToken(t, env.conf, u.finance), wantData: allowed(true, navigation.AccessOK)},
		{name: "coach on the finance page", path: access("/finance"), token: getToken(t, env.conf, u.coach), wantData: allowed(false, navigation.AccessDenied)},
		{name: "invalid token", path: access("/auth"), token: "garbage", wantCode: http.StatusUnauthorized},
	})
}

func Test_navigationApi_settings(t *testing.T) {
	env := setup(t)
	u := createWorkflowUsers(t, env)
	ctx := context.Background()
	adminToken := getToken(t, env.conf, u.admin)
	bobToken := getToken(t, env.conf, u.bob)

	runTests(t, env, []httpTest{
		{name: "empty menu before seeding", path: "/v1/navigation/menu", token: bobToken, wantData: marshalList(t)},
		{name: "default landing before seeding", path: "/v1/navigation/default", token: bobToken, wantData: marshalObj(t, echoapi.DefaultPageResponse{Path: navigation.DefaultLanding})},
	})

	n, err := env.deps.NavigationSvc.Seed(ctx)
	require.NoError(t, err)
	require.Positive(t, n)
	n, err = env.deps.NavigationSvc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice creates nothing")

	settings, err := env.deps.NavigationSvc.Settings(ctx, user.RoleParticipant)
	require.NoError(t, err)
	require.Len(t, settings, len(navigation.DefaultMenu(user.RoleParticipant)))
	byPath := make(map[string]navigation.Setting)
	for _, s := range settings {
		byPath[s.PagePath] = s
	}

	runTests(t, env, []httpTest{
		{name: "menu", path: "/v1/navigation/menu", token: bobToken, wantData: marshalObj(t, settings)},
		{name: "settings (admin only)", path: "/v1/navigation/settings?role=participant", token: bobToken, wantCode: http.StatusForbidden},
		{
			name: "settings (invalid role)", path: "/v1/navigation/settings?role=teacher", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"role": "invalid role"}),
		},
		{name: "settings", path: "/v1/navigation/settings?role=participant", token: adminToken, wantData: marshalObj(t, settings)},
		{
			name: "cannot hide the default page", method: http.MethodPut, path: "/v1/navigation/settings/" + byPath["/dashboard"].ID,
			token: adminToken, body: []byte(`{"is_visible": false}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"is_visible": navigation.ErrHiddenDefault.Error()}),
		},
		{
			name: "cannot delete a default page", method: http.MethodDelete, path: "/v1/navigation/settings/" + byPath["/tasks"].ID,
			token: adminToken, wantCode: http.StatusBadRequest,
		},
		{
			name: "reorder with a foreign id", method: http.MethodPost, path: "/v1/navigation/settings/reorder?role=coach",
			token: adminToken, body: marshalObj(t, navigation.Reorder{IDs: []string{byPath["/tasks"].ID}}), wantCode: http.StatusBadRequest,
		},
	})

	t.Run("hide a page", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/navigation/settings/"+byPath["/trades"].ID, adminToken, []byte(`{"is_visible": false, "label": "My trades"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var s navigation.Setting
		unmarshal(t, rec, &s)
		assert.False(t, s.IsVisible)
		assert.Equal(t, "My trades", s.Label)

		menu, err := env.deps.NavigationSvc.Menu(ctx, user.RoleParticipant)
		require.NoError(t, err)
		assert.Len(t, menu, len(settings)-1)
	})

	t.Run("change the default page", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/navigation/settings/"+byPath["/journey"].ID+"/default", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/v1/navigation/default", bobToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"path": "/journey"}`, rec.Body.String())

		all, err := env.deps.NavigationSvc.Settings(ctx, user.RoleParticipant)
		require.NoError(t, err)
		defaults := 0
		for _, s := range all {
			if s.IsDefault {
				defaults++
			}
		}
		assert.Equal(t, 1, defaults)
	})

	t.Run("reorder", func(t *testing.T) {
		ids := make([]string, 0, len(settings))
		for i := len(settings) - 1; i >= 0; i-- {
			ids = append(ids, settings[i].ID)
		}
		rec := env.do(http.MethodPost, "/v1/navigation/settings/reorder?role=participant", adminToken, marshalObj(t, navigation.Reorder{IDs: ids}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got []navigation.Setting
		unmarshal(t, rec, &got)
		require.Len(t, got, len(ids))
		for i := range got {
			assert.Equal(t, ids[i], got[i].ID)
			assert.Equal(t, i, got[i].DisplayOrder)
		}
	})

	t.Run("custom links", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/navigation/settings/custom", adminToken,
			marshalObj(t, navigation.NewCustomLink{Role: "Participant", Label: "Community", URL: "https://community.example.com"}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var link navigation.Setting
		unmarshal(t, rec, &link)
		assert.True(t, link.IsCustom)
		assert.Equal(t, len(settings), link.DisplayOrder)

		rec = env.do(http.MethodPost, "/v1/navigation/settings/custom", adminToken,
			marshalObj(t, navigation.NewCustomLink{Role: user.RoleParticipant, Label: "Broken", URL: "not a url"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.do(http.MethodPost, "/v1/navigation/settings/custom", adminToken,
			marshalObj(t, navigation.NewCustomLink{Role: user.RoleParticipant, Label: " \t ", URL: "https://community.example.com"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"label": "this field cannot be blank"}`, rec.Body.String())

		rec = env.do(http.MethodDelete, "/v1/navigation/settings/"+link.ID, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		rec = env.do(http.MethodDelete, "/v1/navigation/settings/"+link.ID, adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
