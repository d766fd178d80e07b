package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/user"
)

type journeyApi struct {
	svc      journey.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerJourneyAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := journeyApi{
		svc:      deps.JourneySvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
	}

	jg := g.Group("/journey", jwt)
	jg.GET("/stages", api.queryStages)
	jg.GET("", api.queryProgress)
	jg.GET("/:userId", api.retrieve)
	jg.PUT("/:userId/:stageId", api.update)
}

func (api *journeyApi) queryStages(ctx echo.Context) error {
	stages, err := api.svc.Stages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying stages")
	}
	return ctx.JSON(http.StatusOK, stages)
}

// queryProgress lists the raw progress rows of the participants visible to the user.
func (api *journeyApi) queryProgress(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	ids, err := scopeUserIDs(ctx, api.users, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "scoping users")
	}

	progress, err := api.svc.Progress(ctx.Request().Context(), &journey.ProgressFilter{
		UserIDs: ids,
		StageID: core.CleanString(ctx.QueryParam("stage_id")),
		Status:  core.CleanString(ctx.QueryParam("status"), true /* lower */),
	})
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	if progress == nil {
		progress = []journey.Progress{}
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *journeyApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	participant, err := getParticipant(ctx, api.users, ctxUsr, ctx.Param("userId"))
	if err != nil {
		return err
	}

	stages, err := api.svc.Journey(ctx.Request().Context(), ctxUsr, participant)
	if err != nil {
		return errors.Wrap(err, "building journey")
	}
	return ctx.JSON(http.StatusOK, stages)
}

func (api *journeyApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	participant, err := getParticipant(ctx, api.users, ctxUsr, ctx.Param("userId"))
	if err != nil {
		return err
	}

	var data journey.UpdateProgress
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgress")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.UpdateProgress(ctx.Request().Context(), ctxUsr, participant, ctx.Param("stageId"), data)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, p)
}
