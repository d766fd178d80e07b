package trade

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("trade")
	ErrMissingAttachment = errors.New("a receipt is required")

	// ReviewerRoles may approve or reject trades.
	ReviewerRoles = []string{user.RoleAdmin, user.RoleCoach}
)

type (
	Repository interface {
		CreateTrade(ctx context.Context, t Trade) (Trade, error)
		// QueryTrades returns trades ordered by trade_date, newest first.
		QueryTrades(ctx context.Context, filter *QueryFilter) ([]Trade, error)
		GetTrade(ctx context.Context, id string) (Trade, error)
		// UpdateReview saves the review fields of t.
		UpdateReview(ctx context.Context, t Trade) (Trade, error)
	}

	ServiceInterface interface {
		Trades(ctx context.Context, filter *QueryFilter) ([]Trade, error)
		Get(ctx context.Context, id string) (Trade, error)
		// Create logs a trade for `participant`. Trades are never edited by their owner.
		Create(ctx context.Context, participant user.User, nt NewTrade) (Trade, error)
		Review(ctx context.Context, reviewer user.User, id string, r Review) (Trade, error)
		// Reopen moves an approved trade back to pending and clears its review.
		Reopen(ctx context.Context, admin user.User, id string) (Trade, error)
	}

	service struct {
		repo     Repository
		users    user.ServiceInterface
		auditLog audit.Logger
		mailSvc  core.EmailService
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, users user.ServiceInterface, auditLog audit.Logger, mailSvc core.EmailService) ServiceInterface {
	return &service{
		repo:     repo,
		users:    users,
		auditLog: auditLog,
		mailSvc:  mailSvc,
	}
}

func (svc *service) Trades(ctx context.Context, filter *QueryFilter) ([]Trade, error) {
	return svc.repo.QueryTrades(ctx, filter)
}

func (svc *service) Get(ctx context.Context, id string) (Trade, error) {
	return svc.repo.GetTrade(ctx, id)
}

func (svc *service) Create(ctx context.Context, participant user.User, nt NewTrade) (Trade, error) {
	if !participant.IsParticipant() {
		return Trade{}, core.ErrPermissionDenied
	}
	if nt.AttachmentURL == "" {
		return Trade{}, core.NewValidationError(ErrMissingAttachment, core.FieldError{Field: "file", Error: ErrMissingAttachment.Error()})
	}

	t, err := svc.repo.CreateTrade(ctx, Trade{
		UserID:        participant.ID,
		TradeType:     nt.TradeType,
		Product:       nt.Product,
		Country:       nt.Country,
		Amount:        nt.Amount,
		Currency:      nt.Currency,
		TradeDate:     nt.TradeDate(),
		AttachmentURL: nt.AttachmentURL,
		Status:        workflow.TradeReview.Initial,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return Trade{}, errors.Wrap(err, "saving trade")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   participant.ID,
		TableName: audit.TableTrades,
		RecordID:  t.ID,
		Action:    audit.ActionCreate,
		NewStatus: t.Status,
		Details:   fmt.Sprintf("%s %s", t.TradeType, t.Product),
	})
	return t, err
}

func (svc *service) getReviewable(ctx context.Context, reviewer user.User, id string) (Trade, user.User, error) {
	t, err := svc.repo.GetTrade(ctx, id)
	if err != nil {
		return Trade{}, user.User{}, err
	}
	owner, err := svc.users.GetByID(ctx, t.UserID)
	if err != nil {
		return Trade{}, user.User{}, errors.Wrap(err, "finding trade owner")
	}
	if !reviewer.HasAnyRole(ReviewerRoles...) || !reviewer.CanView(owner) {
		return Trade{}, user.User{}, core.ErrPermissionDenied
	}
	return t, owner, nil
}

func (svc *service) Review(ctx context.Context, reviewer user.User, id string, r Review) (Trade, error) {
	t, owner, err := svc.getReviewable(ctx, reviewer, id)
	if err != nil {
		return Trade{}, err
	}
	oldStatus := t.Status
	if err = workflow.TradeReview.Check(oldStatus, r.Status, workflow.ActorOf(reviewer.Role)); err != nil {
		return Trade{}, err
	}

	now := time.Now().UTC()
	t.Status = r.Status
	t.ReviewNotes = r.ReviewNotes
	t.ReviewedBy = reviewer.ID
	t.ReviewedAt = &now

	if t, err = svc.repo.UpdateReview(ctx, t); err != nil {
		return Trade{}, errors.Wrap(err, "saving trade")
	}
	svc.mailSvc.SendMessages(core.NewReviewedMessage(
		mail.Address{Name: owner.FullName, Address: owner.Email},
		"trade", fmt.Sprintf("%s of %s (%s)", t.TradeType, t.Product, t.TradeDate.Format(dateLayout)),
		t.Status, t.ReviewNotes, "/trades",
	))
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   reviewer.ID,
		TableName: audit.TableTrades,
		RecordID:  t.ID,
		Action:    audit.ActionReview,
		OldStatus: oldStatus,
		NewStatus: t.Status,
		Details:   t.ReviewNotes,
	})
	return t, err
}

func (svc *service) Reopen(ctx context.Context, admin user.User, id string) (Trade, error) {
	if !admin.IsAdmin() {
		return Trade{}, core.ErrPermissionDenied
	}
	t, _, err := svc.getReviewable(ctx, admin, id)
	if err != nil {
		return Trade{}, err
	}
	oldStatus := t.Status
	if err = workflow.TradeReview.Check(oldStatus, workflow.TradePending, workflow.ActorAdmin); err != nil {
		return Trade{}, err
	}

	t.Status = workflow.TradePending
	t.ReviewedBy = ""
	t.ReviewedAt = nil

	if t, err = svc.repo.UpdateReview(ctx, t); err != nil {
		return Trade{}, errors.Wrap(err, "saving trade")
	}
	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   admin.ID,
		TableName: audit.TableTrades,
		RecordID:  t.ID,
		Action:    audit.ActionReopen,
		OldStatus: oldStatus,
		NewStatus: t.Status,
	})
	return t, err
}
