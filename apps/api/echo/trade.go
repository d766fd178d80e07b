package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/trade"
	"github.com/pathwayhq/pathway/core/user"
)

type tradeApi struct {
	svc      trade.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
	up       uploader
}

func registerTradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps, up uploader) {
	api := tradeApi{
		svc:      deps.TradeSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
		up:       up,
	}

	tg := g.Group("/trades", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create, roleMiddleware(api.users, user.RoleParticipant))
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id/review", api.review, roleMiddleware(api.users, trade.ReviewerRoles...))
	tg.PUT("/:id/reopen", api.reopen, adminMiddleware(api.users))
}

func (api *tradeApi) query(ctx echo.Context) error {
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

	trades, err := api.svc.Trades(ctx.Request().Context(), &trade.QueryFilter{
		UserIDs:   ids,
		TradeType: core.CleanString(ctx.QueryParam("trade_type"), true /* lower */),
		Status:    core.CleanString(ctx.QueryParam("status"), true /* lower */),
		From:      from,
		To:        to,
	})
	if err != nil {
		return errors.Wrap(err, "querying trades")
	}
	if trades == nil {
		trades = []trade.Trade{}
	}
	return ctx.JSON(http.StatusOK, trades)
}

func (api *tradeApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data trade.NewTrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTrade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.AttachmentURL, err = api.up.one(ctx, ctxUsr.ID, tradeUpload, false); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "logging trade")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tradeApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding trade")
	}
	if err = checkOwner(ctx, api.users, ctxUsr, t.UserID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tradeApi) review(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data trade.Review
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Review(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing trade")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tradeApi) reopen(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	t, err := api.svc.Reopen(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reopening trade")
	}
	return ctx.JSON(http.StatusOK, t)
}
