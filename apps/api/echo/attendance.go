package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/user"
)

type attendanceApi struct {
	svc      attendance.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		svc:      deps.AttendanceSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query)
	ag.POST("/bulk", api.bulkMark, roleMiddleware(api.users, attendance.MarkerRoles...))
}

func (api *attendanceApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	ids, err := scopeUserIDs(ctx, api.users, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "scoping users")
	}
	from, to, err := queryPeriod(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Records(ctx.Request().Context(), &attendance.QueryFilter{
		UserIDs: ids,
		Status:  core.CleanString(ctx.QueryParam("status"), true /* lower */),
		From:    from,
		To:      to,
	})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) bulkMark(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data attendance.BulkMark
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkMark")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	records, err := api.svc.BulkMark(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}
