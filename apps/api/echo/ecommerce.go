package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/ecommerce"
	"github.com/pathwayhq/pathway/core/user"
)

type ecommerceApi struct {
	svc      ecommerce.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerECommerceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := ecommerceApi{
		svc:      deps.ECommerceSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
	}

	eg := g.Group("/ecommerce", jwt)
	eg.GET("", api.query)
	eg.GET("/platforms", api.queryPlatforms)
	eg.GET("/:userId", api.retrieve)
	eg.PUT("/:userId", api.save, roleMiddleware(api.users, ecommerce.StaffRoles...))
}

func (api *ecommerceApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	ids, err := scopeUserIDs(ctx, api.users, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "scoping users")
	}

	setups, err := api.svc.Setups(ctx.Request().Context(), &ecommerce.QueryFilter{
		UserIDs:  ids,
		Platform: core.CleanString(ctx.QueryParam("platform"), true /* lower */),
		Status:   core.CleanString(ctx.QueryParam("status"), true /* lower */),
	})
	if err != nil {
		return errors.Wrap(err, "querying e-commerce setups")
	}
	if setups == nil {
		setups = []ecommerce.Setup{}
	}
	return ctx.JSON(http.StatusOK, setups)
}

func (api *ecommerceApi) queryPlatforms(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ecommerce.Platforms)
}

func (api *ecommerceApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByUser(ctx.Request().Context(), ctxUsr, ctx.Param("userId"))
	if err != nil {
		if core.IsPermissionDenied(err) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding e-commerce setup")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *ecommerceApi) save(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data ecommerce.SaveSetup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSetup")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Save(ctx.Request().Context(), ctxUsr, ctx.Param("userId"), data)
	if err != nil {
		return errors.Wrap(err, "saving e-commerce setup")
	}
	return ctx.JSON(http.StatusOK, s)
}
