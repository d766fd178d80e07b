package tests

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/testutil"
)

func TestMain(m *testing.M) {
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(conf, new(testutil.Logger))
	goleak.VerifyTestMain(m)
}
