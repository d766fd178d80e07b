package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/enrollment"
	"github.com/pathwayhq/pathway/core/user"
)

type enrollmentApi struct {
	svc      enrollment.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
	up       uploader
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps, up uploader) {
	api := enrollmentApi{
		svc:      deps.EnrollmentSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
		up:       up,
	}
	participant := roleMiddleware(api.users, user.RoleParticipant)

	eg := g.Group("/enrollments", jwt)
	eg.GET("", api.query)
	eg.POST("", api.create, participant)
	eg.GET("/me", api.retrieveMine, participant)
	eg.PUT("/me/documents-sent", api.markDocumentsSent, participant)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id/status", api.setStatus, roleMiddleware(api.users, enrollment.StaffRoles...))
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	ids, err := scopeUserIDs(ctx, api.users, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "scoping users")
	}

	enrollments, err := api.svc.Enrollments(ctx.Request().Context(), &enrollment.QueryFilter{
		UserIDs: ids,
		Status:  core.CleanString(ctx.QueryParam("status"), true /* lower */),
	})
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data enrollment.NewEnrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.DocumentURLs, err = api.up.all(ctx, ctxUsr.ID, enrollmentUpload); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *enrollmentApi) retrieveMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	e, err := api.svc.GetByUser(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "finding enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) markDocumentsSent(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data enrollment.DocumentsSent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DocumentsSent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.DocumentURLs, err = api.up.all(ctx, ctxUsr.ID, enrollmentUpload); err != nil {
		return err
	}

	e, err := api.svc.MarkDocumentsSent(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "marking documents sent")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	e, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding enrollment")
	}
	if err = checkOwner(ctx, api.users, ctxUsr, e.UserID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) setStatus(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data enrollment.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.SetStatus(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting enrollment status")
	}
	return ctx.JSON(http.StatusOK, e)
}
