package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/ecommerce"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
	"github.com/pathwayhq/pathway/testutil"
)

func Test_ecommerceApi(t *testing.T) {
	env := setup(t)
	u := createWorkflowUsers(t, env)
	ecom := testutil.CreateUser(t, env.usrRepo, "Ed Ecom", "ed@test.io", "", user.RoleEcommerce, true)
	ecomToken := getToken(t, env.conf, ecom)
	setupPath := "/v1/ecommerce/" + u.bob.ID

	runTests(t, env, []httpTest{
		{name: "platforms", path: "/v1/ecommerce/platforms", token: ecomToken, wantData: marshalObj(t, ecommerce.Platforms)},
		{name: "no setup yet", path: setupPath, token: ecomToken, wantCode: http.StatusNotFound},
		{name: "hidden to other participants", path: setupPath, token: getToken(t, env.conf, u.eve), wantCode: http.StatusNotFound},
		{
			name: "coaches cannot save", method: http.MethodPut, path: setupPath, token: getToken(t, env.conf, u.coach),
			body: marshalObj(t, ecommerce.SaveSetup{Platform: ecommerce.PlatformShopify, StoreName: "Bob's"}), wantCode: http.StatusForbidden,
		},
		{
			name: "invalid setup", method: http.MethodPut, path: setupPath, token: ecomToken,
			body:     marshalObj(t, ecommerce.SaveSetup{Platform: "myspace", StoreName: "Bob's"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"platform": "unsupported platform"}),
		},
		{
			name: "blank store name", method: http.MethodPut, path: setupPath, token: ecomToken,
			body:     marshalObj(t, ecommerce.SaveSetup{Platform: ecommerce.PlatformShopify, StoreName: "  "}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"store_name": "this field cannot be blank"}),
		},
		{
			name: "only participants have a store", method: http.MethodPut, path: "/v1/ecommerce/" + u.coach.ID, token: ecomToken,
			body: marshalObj(t, ecommerce.SaveSetup{Platform: ecommerce.PlatformShopify, StoreName: "Cole's"}), wantCode: http.StatusForbidden,
		},
	})

	var store ecommerce.Setup
	t.Run("create", func(t *testing.T) {
		rec := env.do(http.MethodPut, setupPath, ecomToken, marshalObj(t, ecommerce.SaveSetup{
			Platform: "Shopify", StoreName: " Bob's Cocoa ", StoreURL: "https://bobs-cocoa.example.com",
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &store)
		assert.Equal(t, ecommerce.PlatformShopify, store.Platform)
		assert.Equal(t, "Bob's Cocoa", store.StoreName)
		assert.Equal(t, workflow.SetupPending, store.Status)
	})

	t.Run("update", func(t *testing.T) {
		rec := env.do(http.MethodPut, setupPath, getToken(t, env.conf, u.admin), marshalObj(t, ecommerce.SaveSetup{
			Platform: ecommerce.PlatformShopify, StoreName: "Bob's Cocoa", Status: workflow.SetupCompleted,
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got ecommerce.Setup
		unmarshal(t, rec, &got)
		assert.Equal(t, store.ID, got.ID)
		assert.Equal(t, workflow.SetupCompleted, got.Status)
		store = got
	})

	runTests(t, env, []httpTest{
		{name: "owner sees it", path: setupPath, token: getToken(t, env.conf, u.bob), wantData: marshalObj(t, store)},
		{name: "coach lists it", path: "/v1/ecommerce?status=completed", token: getToken(t, env.conf, u.coach), wantData: marshalList(t, store)},
		{name: "filters", path: "/v1/ecommerce?platform=etsy", token: ecomToken, wantData: marshalList(t)},
	})

	t.Run("audited", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/audit?table_name="+audit.TableEcommerce, getToken(t, env.conf, u.admin))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var entries []audit.Entry
		unmarshal(t, rec, &entries)
		require.Len(t, entries, 2)
		assert.Equal(t, audit.ActionUpdate, entries[0].Action)
		assert.Equal(t, workflow.SetupPending, entries[0].OldStatus)
		assert.Equal(t, workflow.SetupCompleted, entries[0].NewStatus)
		assert.Equal(t, audit.ActionCreate, entries[1].Action)
		assert.Equal(t, ecom.ID, entries[1].ActorID)

		rec = env.do(http.MethodGet, "/v1/audit", ecomToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
