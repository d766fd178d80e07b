package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/pathwayhq/pathway/core/user"
)

// roleMiddleware only lets through active users having one of `roles`.
func roleMiddleware(svc user.ServiceInterface, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if usr.HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return roleMiddleware(svc, user.RoleAdmin)
}

// optionalJWT authenticates the request only when it carries an Authorization header.
func optionalJWT(jwt echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withJWT := jwt(next)
		return func(ctx echo.Context) error {
			if ctx.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(ctx)
			}
			return withJWT(ctx)
		}
	}
}
