package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/navigation"
	"github.com/pathwayhq/pathway/core/user"
)

type navigationApi struct {
	svc      navigation.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerNavigationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := navigationApi{
		svc:      deps.NavigationSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
	}

	ng := g.Group("/navigation")
	ng.GET("/access", api.access, optionalJWT(jwt))

	ag := ng.Group("", jwt)
	ag.GET("/menu", api.menu)
	ag.GET("/default", api.defaultPage)

	sg := ag.Group("/settings", adminMiddleware(api.users))
	sg.GET("", api.querySettings)
	sg.POST("/reorder", api.reorder)
	sg.POST("/custom", api.addCustomLink)
	sg.PUT("/:id", api.update)
	sg.PUT("/:id/default", api.setDefault)
	sg.DELETE("/:id", api.deleteCustomLink)
}

// access tells whether the visitor, authenticated or not, may open the frontend route `path`.
func (api *navigationApi) access(ctx echo.Context) error {
	var role string
	if _, err := getContextClaims(ctx); err == nil {
		usr, err := getContextUser(ctx, api.users)
		if err != nil {
			return err
		}
		role = usr.Role
	}

	allowed, reason := navigation.CanAccessRoute(role, ctx.QueryParam("path"))
	return ctx.JSON(http.StatusOK, AccessResponse{Allowed: allowed, Reason: reason})
}

func (api *navigationApi) menu(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	menu, err := api.svc.Menu(ctx.Request().Context(), ctxUsr.Role)
	if err != nil {
		return errors.Wrap(err, "building menu")
	}
	return ctx.JSON(http.StatusOK, menu)
}

func (api *navigationApi) defaultPage(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	page, err := api.svc.DefaultPage(ctx.Request().Context(), ctxUsr.Role)
	if err != nil {
		return errors.Wrap(err, "finding default page")
	}
	return ctx.JSON(http.StatusOK, DefaultPageResponse{Path: page})
}

func (api *navigationApi) querySettings(ctx echo.Context) error {
	role, err := api.roleParam(ctx)
	if err != nil {
		return err
	}
	settings, err := api.svc.Settings(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrap(err, "querying navigation settings")
	}
	if settings == nil {
		settings = []navigation.Setting{}
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *navigationApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data navigation.UpdateSetting
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSetting")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating navigation setting")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *navigationApi) reorder(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	role, err := api.roleParam(ctx)
	if err != nil {
		return err
	}

	var data navigation.Reorder
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reorder")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	settings, err := api.svc.Reorder(ctx.Request().Context(), ctxUsr, role, data)
	if err != nil {
		return errors.Wrap(err, "reordering navigation")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *navigationApi) setDefault(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	s, err := api.svc.SetDefault(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "setting default page")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *navigationApi) addCustomLink(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data navigation.NewCustomLink
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCustomLink")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.AddCustomLink(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "adding custom link")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *navigationApi) deleteCustomLink(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCustomLink(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting custom link")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *navigationApi) roleParam(ctx echo.Context) (string, error) {
	role := core.CleanString(ctx.QueryParam("role"), true /* lower */)
	if !user.IsValidRole(role) {
		return "", core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}
	return role, nil
}

type (
	AccessResponse struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}

	DefaultPageResponse struct {
		Path string `json:"path"`
	}
)
