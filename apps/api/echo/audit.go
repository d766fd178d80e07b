package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
)

func registerAuditAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	svc := deps.AuditSvc

	g.GET("/audit", func(ctx echo.Context) error {
		from, to, err := queryPeriod(ctx)
		if err != nil {
			return err
		}
		if !to.IsZero() {
			to = to.AddDate(0, 0, 1).Add(-1) // end of day
		}

		entries, err := svc.Query(ctx.Request().Context(), &audit.QueryFilter{
			TableName: core.CleanString(ctx.QueryParam("table_name")),
			RecordID:  core.CleanString(ctx.QueryParam("record_id")),
			ActorID:   core.CleanString(ctx.QueryParam("actor_id")),
			From:      from,
			To:        to,
		})
		if err != nil {
			return errors.Wrap(err, "querying audit log")
		}
		if entries == nil {
			entries = []audit.Entry{}
		}
		return ctx.JSON(http.StatusOK, entries)
	}, jwt, adminMiddleware(deps.UserSvc))
}
