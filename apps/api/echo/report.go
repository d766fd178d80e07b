package echoapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/ecommerce"
	"github.com/pathwayhq/pathway/core/export"
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/report"
	"github.com/pathwayhq/pathway/core/task"
	"github.com/pathwayhq/pathway/core/trade"
	"github.com/pathwayhq/pathway/core/user"
)

const (
	formatParam = "format"
	formatCSV   = "csv"
)

type reportApi struct {
	deps      ServerDeps
	localizer *export.Localizer
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{deps: deps, localizer: deps.Localizer}
	users := deps.UserSvc

	rg := g.Group("/reports", jwt, roleMiddleware(users, user.StaffRoles...))
	rg.GET("/attendance", api.attendance)
	rg.GET("/stages", api.stages)
	rg.GET("/batches", api.batches)
	rg.GET("/tasks", api.tasks)
	rg.GET("/trades", api.trades)
	rg.GET("/finance", api.finance, roleMiddleware(users, user.RoleFinance, user.RoleAdmin))
	rg.GET("/ecommerce", api.ecommerce, roleMiddleware(users, user.RoleEcommerce, user.RoleAdmin))
}

// profiles returns the report params and the participants they cover.
func (api *reportApi) profiles(ctx echo.Context) (report.Params, []user.User, error) {
	p, err := bindReportParams(ctx)
	if err != nil {
		return report.Params{}, nil, err
	}
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return report.Params{}, nil, err
	}
	visible, err := api.deps.UserSvc.Visible(ctx.Request().Context(), ctxUsr, nil)
	if err != nil {
		return report.Params{}, nil, errors.Wrap(err, "querying participants")
	}
	return p, report.Scope(ctxUsr, visible, p), nil
}

// render sends the rows as JSON, or as a CSV attachment with `?format=csv`.
// CSV headers are translated in the `lang` query param, else the Accept-Language header.
func (api *reportApi) render(ctx echo.Context, name string, rows interface{}) error {
	if ctx.QueryParam(formatParam) != formatCSV {
		return ctx.JSON(http.StatusOK, rows)
	}

	tag := api.localizer.Match(ctx.QueryParam("lang"), ctx.Request().Header.Get("Accept-Language"))
	buf := new(bytes.Buffer)
	if err := export.WriteCSV(buf, rows, api.localizer.Labels(tag)); err != nil {
		return errors.Wrap(err, "writing csv")
	}

	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().UTC().Format("20060102"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Response().Header().Set("Content-Language", tag.String())
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// journeyRows loads the stage catalog and the progress of `profiles` concurrently.
func (api *reportApi) journeyRows(ctx context.Context, profiles []user.User) ([]journey.Stage, []journey.Progress, error) {
	var stages []journey.Stage
	var progress []journey.Progress

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stages, err = api.deps.JourneySvc.Stages(gctx)
		return errors.Wrap(err, "querying stages")
	})
	g.Go(func() (err error) {
		progress, err = api.deps.JourneySvc.Progress(gctx, &journey.ProgressFilter{UserIDs: report.UserIDs(profiles)})
		return errors.Wrap(err, "querying progress")
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return stages, progress, nil
}

func (api *reportApi) attendance(ctx echo.Context) error {
	p, profiles, err := api.profiles(ctx)
	if err != nil {
		return err
	}
	records, err := api.deps.AttendanceSvc.Records(ctx.Request().Context(), &attendance.QueryFilter{
		UserIDs: report.UserIDs(profiles),
		From:    p.From,
		To:      p.To,
	})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return api.render(ctx, "attendance", report.Attendance(profiles, records, p))
}

func (api *reportApi) stages(ctx echo.Context) error {
	_, profiles, err := api.profiles(ctx)
	if err != nil {
		return err
	}
	stages, progress, err := api.journeyRows(ctx.Request().Context(), profiles)
	if err != nil {
		return err
	}
	return api.render(ctx, "stages", report.StageCompletion(profiles, stages, progress))
}

func (api *reportApi) batches(ctx echo.Context) error {
	_, profiles, err := api.profiles(ctx)
	if err != nil {
		return err
	}
	stages, progress, err := api.journeyRows(ctx.Request().Context(), profiles)
	if err != nil {
		return err
	}
	return api.render(ctx, "batches", report.BatchBreakdown(profiles, stages, progress))
}

func (api *reportApi) finance(ctx echo.Context) error {
	_, profiles, err := api.profiles(ctx)
	if err != nil {
		return err
	}
	stages, progress, err := api.journeyRows(ctx.Request().Context(), profiles)
	if err != nil {
		return err
	}
	return api.render(ctx, "finance", report.Finance(profiles, stages, progress))
}

func (api *reportApi) tasks(ctx echo.Context) error {
	_, profiles, err := api.profiles(ctx)
	if err != nil {
		return err
	}

	var tasks []task.Task
	var subs []task.Submission
	g, gctx := errgroup.WithContext(ctx.Request().Context())
	g.Go(func() (err error) {
		tasks, err = api.deps.TaskSvc.Tasks(gctx, true /* activeOnly */)
		return errors.Wrap(err, "querying tasks")
	})
	g.Go(func() (err error) {
		subs, err = api.deps.TaskSvc.Submissions(gctx, &task.SubmissionFilter{UserIDs: report.UserIDs(profiles)})
		return errors.Wrap(err, "querying submissions")
	})
	if err = g.Wait(); err != nil {
		return err
	}
	return api.render(ctx, "tasks", report.TaskCompletion(profiles, tasks, subs))
}

func (api *reportApi) ecommerce(ctx echo.Context) error {
	_, profiles, err := api.profiles(ctx)
	if err != nil {
		return err
	}
	setups, err := api.deps.ECommerceSvc.Setups(ctx.Request().Context(), &ecommerce.QueryFilter{UserIDs: report.UserIDs(profiles)})
	if err != nil {
		return errors.Wrap(err, "querying e-commerce setups")
	}
	return api.render(ctx, "ecommerce", report.ECommerce(profiles, setups))
}

func (api *reportApi) trades(ctx echo.Context) error {
	p, profiles, err := api.profiles(ctx)
	if err != nil {
		return err
	}
	trades, err := api.deps.TradeSvc.Trades(ctx.Request().Context(), &trade.QueryFilter{
		UserIDs: report.UserIDs(profiles),
		From:    p.From,
		To:      p.To,
	})
	if err != nil {
		return errors.Wrap(err, "querying trades")
	}
	return api.render(ctx, "trades", report.TradesByMonth(profiles, trades, p))
}
