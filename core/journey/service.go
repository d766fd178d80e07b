package journey

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

var (
	// errors
	ErrStageNotFound    = core.NewNotFoundError("stage")
	ErrProgressNotFound = core.NewNotFoundError("progress")
)

type (
	Repository interface {
		// QueryStages returns the stage catalog ordered by display_order.
		QueryStages(ctx context.Context) ([]Stage, error)
		GetStage(ctx context.Context, id string) (Stage, error)
		QueryProgress(ctx context.Context, filter *ProgressFilter) ([]Progress, error)
		GetProgress(ctx context.Context, userID, stageID string) (Progress, error)
		// UpsertProgress inserts p or updates the existing (user_id, stage_id) row.
		UpsertProgress(ctx context.Context, p Progress) (Progress, error)
	}

	ServiceInterface interface {
		Stages(ctx context.Context) ([]Stage, error)
		Progress(ctx context.Context, filter *ProgressFilter) ([]Progress, error)
		// Journey returns every stage of `participant` with its progress and whether `viewer` may edit it.
		Journey(ctx context.Context, viewer, participant user.User) ([]StageProgress, error)
		UpdateProgress(ctx context.Context, actor, participant user.User, stageID string, up UpdateProgress) (Progress, error)
	}

	service struct {
		repo     Repository
		auditLog audit.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, auditLog audit.Logger) ServiceInterface {
	return &service{repo: repo, auditLog: auditLog}
}

func (svc *service) Stages(ctx context.Context) ([]Stage, error) {
	return svc.repo.QueryStages(ctx)
}

func (svc *service) Progress(ctx context.Context, filter *ProgressFilter) ([]Progress, error) {
	return svc.repo.QueryProgress(ctx, filter)
}

func (svc *service) Journey(ctx context.Context, viewer, participant user.User) ([]StageProgress, error) {
	if !viewer.CanView(participant) {
		return nil, core.ErrPermissionDenied
	}

	stages, err := svc.repo.QueryStages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying stages")
	}
	progress, err := svc.repo.QueryProgress(ctx, &ProgressFilter{UserIDs: []string{participant.ID}})
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	byStage := make(map[string]Progress, len(progress))
	for _, p := range progress {
		byStage[p.StageID] = p
	}

	journey := make([]StageProgress, 0, len(stages))
	for _, stage := range stages {
		sp := StageProgress{
			Stage:   stage,
			Status:  workflow.ProgressNotStarted,
			CanEdit: CanMutateStage(viewer.Role, stage.Name),
		}
		if p, ok := byStage[stage.ID]; ok {
			p := p
			sp.Status = p.Status
			sp.Progress = &p
		}
		journey = append(journey, sp)
	}
	return journey, nil
}

func (svc *service) UpdateProgress(
	ctx context.Context,
	actor, participant user.User,
	stageID string,
	up UpdateProgress,
) (Progress, error) {
	stage, err := svc.repo.GetStage(ctx, stageID)
	if err != nil {
		return Progress{}, err
	}
	if !participant.IsParticipant() || !actor.CanView(participant) || !CanMutateStage(actor.Role, stage.Name) {
		return Progress{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	p, err := svc.repo.GetProgress(ctx, participant.ID, stage.ID)
	if err != nil {
		if !core.IsNotFound(err) {
			return Progress{}, errors.Wrap(err, "finding progress")
		}
		p = Progress{UserID: participant.ID, StageID: stage.ID, Status: workflow.Progress.Initial}
	}
	oldStatus := p.Status
	if err = workflow.Progress.Check(oldStatus, up.Status, workflow.ActorOf(actor.Role)); err != nil {
		return Progress{}, err
	}

	p.Status = up.Status
	switch up.Status {
	case workflow.ProgressInProgress:
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
		p.CompletedAt = nil
	case workflow.ProgressCompleted:
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
	case workflow.ProgressNotStarted:
		p.StartedAt = nil
		p.CompletedAt = nil
	}
	if up.Notes != nil {
		p.Notes = core.CleanString(*up.Notes)
	}
	p.UpdatedBy = actor.ID
	p.UpdatedAt = now

	if p, err = svc.repo.UpsertProgress(ctx, p); err != nil {
		return Progress{}, errors.Wrap(err, "saving progress")
	}

	err = svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   actor.ID,
		TableName: audit.TableProgress,
		RecordID:  p.ID,
		Action:    audit.ActionUpdate,
		OldStatus: oldStatus,
		NewStatus: p.Status,
		Details:   stage.Name,
	})
	return p, err
}
