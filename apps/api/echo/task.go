package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/task"
	"github.com/pathwayhq/pathway/core/user"
)

type taskApi struct {
	svc      task.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
	up       uploader
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps, up uploader) {
	api := taskApi{
		svc:      deps.TaskSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
		up:       up,
	}
	admin := adminMiddleware(api.users)

	tg := g.Group("/tasks", jwt)
	tg.GET("", api.queryTasks)
	tg.POST("", api.createTask, admin)
	tg.PUT("/:id", api.updateTask, admin)
	tg.POST("/:id/submit", api.submit, roleMiddleware(api.users, user.RoleParticipant))

	sg := tg.Group("/submissions")
	sg.GET("", api.querySubmissions)
	sg.GET("/:id", api.retrieveSubmission)
	sg.PUT("/:id/review", api.review, roleMiddleware(api.users, task.ReviewerRoles...))
	sg.PUT("/:id/reopen", api.reopen, admin)
}

// queryTasks lists the active tasks; admins may ask for all of them with `?all=true`.
func (api *taskApi) queryTasks(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	activeOnly := true
	if all := queryBool(ctx, "all"); all != nil && *all && ctxUsr.IsAdmin() {
		activeOnly = false
	}

	tasks, err := api.svc.Tasks(ctx.Request().Context(), activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) createTask(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.CreateTask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) updateTask(ctx echo.Context) error {
	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.UpdateTask(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) submit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data task.SubmitTask
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitTask")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.AttachmentURL, err = api.up.one(ctx, ctxUsr.ID, taskUpload, false); err != nil {
		return err
	}

	s, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting task")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *taskApi) querySubmissions(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	ids, err := scopeUserIDs(ctx, api.users, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "scoping users")
	}

	subs, err := api.svc.Submissions(ctx.Request().Context(), &task.SubmissionFilter{
		UserIDs: ids,
		TaskID:  core.CleanString(ctx.QueryParam("task_id")),
		Status:  core.CleanString(ctx.QueryParam("status"), true /* lower */),
	})
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []task.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *taskApi) retrieveSubmission(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	s, err := api.svc.GetSubmission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission")
	}
	if err = checkOwner(ctx, api.users, ctxUsr, s.UserID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *taskApi) review(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	var data task.Review
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Review(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *taskApi) reopen(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	s, err := api.svc.Reopen(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reopening submission")
	}
	return ctx.JSON(http.StatusOK, s)
}
