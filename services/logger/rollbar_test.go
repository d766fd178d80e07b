package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/user"
)

func TestRollbarLogger_prepare(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())
	l.Enable(false)

	boom := errors.New("boom")
	usr := user.User{ID: "7d2e", FullName: "Cole Coach", Email: "cole@test.io", Role: user.RoleCoach}

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "message only", want: []interface{}{"msg"}},
		{name: "error", args: []interface{}{boom}, want: []interface{}{"msg", boom}},
		{
			name: "user role becomes custom data",
			args: []interface{}{boom, usr},
			want: []interface{}{"msg", boom, map[string]interface{}{"role": user.RoleCoach}},
		},
		{
			name: "custom data is merged",
			args: []interface{}{boom, usr, map[string]interface{}{"route": "/v1/tasks/:id"}, map[string]interface{}{"method": "GET"}},
			want: []interface{}{"msg", boom, map[string]interface{}{"role": user.RoleCoach, "route": "/v1/tasks/:id", "method": "GET"}},
		},
		{
			name: "only the first user is kept",
			args: []interface{}{usr, user.User{ID: "other", Role: user.RoleAdmin}},
			want: []interface{}{"msg", map[string]interface{}{"role": user.RoleCoach}},
		},
		{
			name: "anonymous user",
			args: []interface{}{user.User{}, map[string]interface{}{"path": "/v1/me"}},
			want: []interface{}{"msg", map[string]interface{}{"path": "/v1/me"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.prepare("msg", tt.args))
		})
	}
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())
	l.Enable(false)

	l.Warn("disk almost full", map[string]interface{}{"free": 3})
	require.Equal(t, "disk almost full\nmap[free:3]\n", buf.String())
}
