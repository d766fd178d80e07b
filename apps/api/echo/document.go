package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/document"
	"github.com/pathwayhq/pathway/core/user"
)

type documentApi struct {
	svc      document.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
	up       uploader
}

func registerDocumentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps, up uploader) {
	api := documentApi{
		svc:      deps.DocumentSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
		up:       up,
	}

	dg := g.Group("/documents", jwt)
	dg.GET("", api.query)
	dg.POST("", api.upload, roleMiddleware(api.users, user.RoleParticipant))
	dg.GET("/types", api.queryTypes)
	dg.GET("/:id", api.retrieve)
	dg.PUT("/:id/review", api.review, roleMiddleware(api.users, document.ReviewerRoles...))
	dg.PUT("/:id/reopen", api.reopen, adminMiddleware(api.users))
}

func (api *documentApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	ids, err := scopeUserIDs(ctx, api.users, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "scoping users")
	}

	docs, err := api.svc.Documents(ctx.Request().Context(), &document.QueryFilter{
		UserIDs:      ids,
		DocumentType: core.CleanString(ctx.QueryParam("document_type"), true /* lower */),
		Status:       core.CleanString(ctx.QueryParam("status"), true /* lower */),
	})
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *documentApi) queryTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, document.Types)
}

func (api *documentApi) upload(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data document.NewDocument
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDocument")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.FileURL, err = api.up.one(ctx, ctxUsr.ID, documentUpload, true /* required */); err != nil {
		return err
	}

	d, err := api.svc.Upload(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *documentApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	d, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding document")
	}
	if err = checkOwner(ctx, api.users, ctxUsr, d.UserID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *documentApi) review(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data document.Review
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	d, err := api.svc.Review(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing document")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *documentApi) reopen(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	d, err := api.svc.Reopen(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reopening document")
	}
	return ctx.JSON(http.StatusOK, d)
}
