package echoapi

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/report"
	"github.com/pathwayhq/pathway/core/user"
)

const (
	orderingParam = "ordering"
	dateLayout    = "2006-01-02"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryDate parses the `name` query param as a YYYY-MM-DD date. A missing param is the zero time.
func queryDate(ctx echo.Context, name string) (time.Time, error) {
	val := core.CleanString(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: name, Error: "invalid date, expected YYYY-MM-DD"})
	}
	return d, nil
}

// queryPeriod parses the `from` & `to` query params.
func queryPeriod(ctx echo.Context) (from, to time.Time, err error) {
	if from, err = queryDate(ctx, "from"); err != nil {
		return
	}
	to, err = queryDate(ctx, "to")
	return
}

func queryBool(ctx echo.Context, name string) *bool {
	val := core.CleanString(ctx.QueryParam(name))
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &b
}

// bindReportParams reads the `batch`, `from`, `to` & `include_pending` query params.
func bindReportParams(ctx echo.Context) (report.Params, error) {
	from, to, err := queryPeriod(ctx)
	if err != nil {
		return report.Params{}, err
	}
	p := report.Params{
		Batch: core.CleanString(ctx.QueryParam("batch")),
		From:  from,
		To:    to,
	}
	if incl := queryBool(ctx, "include_pending"); incl != nil {
		p.IncludePending = *incl
	}
	return p, nil
}

// scopeUserIDs returns the ids of the participants whose rows `viewer` may list:
// only themselves for participants, their assigned participants for coaches and nil (everybody) for other staff.
// The `user_id` query param narrows the scope to a single visible user.
func scopeUserIDs(ctx echo.Context, svc user.ServiceInterface, viewer user.User) ([]string, error) {
	reqCtx := ctx.Request().Context()
	if id := core.CleanString(ctx.QueryParam("user_id")); id != "" {
		other, err := svc.GetByID(reqCtx, id)
		if err != nil {
			if core.IsNotFound(err) {
				return []string{}, nil
			}
			return nil, err
		}
		if !viewer.CanView(other) {
			return []string{}, nil
		}
		return []string{other.ID}, nil
	}

	switch {
	case viewer.IsParticipant():
		return []string{viewer.ID}, nil
	case viewer.IsCoach():
		return visibleIDs(reqCtx, svc, viewer)
	}
	return nil, nil
}

func visibleIDs(ctx context.Context, svc user.ServiceInterface, viewer user.User) ([]string, error) {
	users, err := svc.Visible(ctx, viewer, nil)
	if err != nil {
		return nil, err
	}
	return report.UserIDs(users), nil
}

// getParticipant returns the user `id` if `viewer` may see them, else a not-found error.
func getParticipant(ctx echo.Context, svc user.ServiceInterface, viewer user.User, id string) (user.User, error) {
	other, err := svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, errHttpNotFound
		}
		return user.User{}, err
	}
	if !viewer.CanView(other) {
		return user.User{}, errHttpNotFound
	}
	return other, nil
}

// checkOwner returns a not-found error unless `viewer` may see the user `ownerID`.
func checkOwner(ctx echo.Context, svc user.ServiceInterface, viewer user.User, ownerID string) error {
	_, err := getParticipant(ctx, svc, viewer, ownerID)
	return err
}
