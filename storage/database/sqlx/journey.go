package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core/journey"
)

type (
	stageRow struct {
		ID           string      `db:"id"`
		Name         string      `db:"name"`
		Description  null.String `db:"description"`
		DisplayOrder int         `db:"display_order"`
	}

	progressRow struct {
		ID          string      `db:"id"`
		UserID      string      `db:"user_id"`
		StageID     string      `db:"stage_id"`
		Status      string      `db:"status"`
		StartedAt   null.Time   `db:"started_at"`
		CompletedAt null.Time   `db:"completed_at"`
		UpdatedBy   null.String `db:"updated_by"`
		Notes       null.String `db:"notes"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}
)

type journeyRepository struct {
	db *sqlx.DB
}

var _ journey.Repository = (*journeyRepository)(nil) // interface compliance check

func NewJourneyRepository(db *sqlx.DB) journey.Repository {
	return &journeyRepository{db: db}
}

func (repo journeyRepository) unboilStage(row stageRow) journey.Stage {
	return journey.Stage{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description.String,
		DisplayOrder: row.DisplayOrder,
	}
}

func (repo journeyRepository) boilProgress(p journey.Progress) progressRow {
	return progressRow{
		ID:          p.ID,
		UserID:      p.UserID,
		StageID:     p.StageID,
		Status:      p.Status,
		StartedAt:   nullTimePtr(p.StartedAt),
		CompletedAt: nullTimePtr(p.CompletedAt),
		UpdatedBy:   nullString(p.UpdatedBy),
		Notes:       nullString(p.Notes),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (repo journeyRepository) unboilProgress(row progressRow) journey.Progress {
	return journey.Progress{
		ID:          row.ID,
		UserID:      row.UserID,
		StageID:     row.StageID,
		Status:      row.Status,
		StartedAt:   timePtr(row.StartedAt),
		CompletedAt: timePtr(row.CompletedAt),
		UpdatedBy:   row.UpdatedBy.String,
		Notes:       row.Notes.String,
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo journeyRepository) QueryStages(ctx context.Context) ([]journey.Stage, error) {
	var rows []stageRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM journey_stages ORDER BY display_order"); err != nil {
		return nil, errors.Wrap(err, "selecting stages")
	}
	stages := make([]journey.Stage, 0, len(rows))
	for _, row := range rows {
		stages = append(stages, repo.unboilStage(row))
	}
	return stages, nil
}

func (repo journeyRepository) GetStage(ctx context.Context, id string) (journey.Stage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return journey.Stage{}, journey.ErrStageNotFound
	}
	var row stageRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM journey_stages WHERE id = $1", id); err != nil {
		return journey.Stage{}, trapNoRowsErr(err, journey.ErrStageNotFound, "selecting stage")
	}
	return repo.unboilStage(row), nil
}

func (repo journeyRepository) QueryProgress(ctx context.Context, filter *journey.ProgressFilter) ([]journey.Progress, error) {
	w := new(where)
	if filter != nil {
		w.in("user_id", filter.UserIDs)
		if filter.StageID != "" {
			w.add("stage_id = ?", filter.StageID)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
	}

	var rows []progressRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM participant_progress", " ORDER BY user_id, stage_id"); err != nil {
		return nil, errors.Wrap(err, "selecting progress")
	}
	progress := make([]journey.Progress, 0, len(rows))
	for _, row := range rows {
		progress = append(progress, repo.unboilProgress(row))
	}
	return progress, nil
}

func (repo journeyRepository) GetProgress(ctx context.Context, userID, stageID string) (journey.Progress, error) {
	var row progressRow
	const q = "SELECT * FROM participant_progress WHERE user_id = $1 AND stage_id = $2"
	if err := repo.db.GetContext(ctx, &row, q, userID, stageID); err != nil {
		return journey.Progress{}, trapNoRowsErr(err, journey.ErrProgressNotFound, "selecting progress")
	}
	return repo.unboilProgress(row), nil
}

func (repo journeyRepository) UpsertProgress(ctx context.Context, p journey.Progress) (journey.Progress, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO participant_progress (id, user_id, stage_id, status, started_at, completed_at, updated_by, notes, updated_at)
	VALUES (:id, :user_id, :stage_id, :status, :started_at, :completed_at, :updated_by, :notes, :updated_at)
	ON CONFLICT ON CONSTRAINT participant_progress_user_stage_key DO UPDATE
	SET status = EXCLUDED.status, started_at = EXCLUDED.started_at, completed_at = EXCLUDED.completed_at,
		updated_by = EXCLUDED.updated_by, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
	RETURNING *`

	var row progressRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boilProgress(p)); err != nil {
		return journey.Progress{}, errors.Wrap(err, "upserting progress")
	}
	return repo.unboilProgress(row), nil
}
