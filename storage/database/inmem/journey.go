package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core/journey"
)

type journeyRepository struct {
	stages   *stageTable
	progress *progressTable
}

var _ journey.Repository = (*journeyRepository)(nil) // interface compliance check

func NewJourneyRepository(db *DB) journey.Repository {
	return &journeyRepository{stages: db.stage, progress: db.progress}
}

func (repo *journeyRepository) QueryStages(_ context.Context) ([]journey.Stage, error) {
	repo.stages.RLock()
	defer repo.stages.RUnlock()

	stages := make([]journey.Stage, 0, len(repo.stages.table))
	for _, s := range repo.stages.table {
		stages = append(stages, *s)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].DisplayOrder < stages[j].DisplayOrder })
	return stages, nil
}

func (repo *journeyRepository) GetStage(_ context.Context, id string) (journey.Stage, error) {
	repo.stages.RLock()
	defer repo.stages.RUnlock()

	if s, ok := repo.stages.table[id]; ok {
		return *s, nil
	}
	return journey.Stage{}, journey.ErrStageNotFound
}

func (repo *journeyRepository) QueryProgress(_ context.Context, filter *journey.ProgressFilter) ([]journey.Progress, error) {
	repo.progress.RLock()
	defer repo.progress.RUnlock()

	progress := make([]journey.Progress, 0)
	for _, p := range repo.progress.table {
		if filter.Match(*p) {
			progress = append(progress, *p)
		}
	}
	sort.Slice(progress, func(i, j int) bool {
		if progress[i].UserID != progress[j].UserID {
			return progress[i].UserID < progress[j].UserID
		}
		return progress[i].StageID < progress[j].StageID
	})
	return progress, nil
}

func (repo *journeyRepository) GetProgress(_ context.Context, userID, stageID string) (journey.Progress, error) {
	repo.progress.RLock()
	defer repo.progress.RUnlock()

	for _, p := range repo.progress.table {
		if p.UserID == userID && p.StageID == stageID {
			return *p, nil
		}
	}
	return journey.Progress{}, journey.ErrProgressNotFound
}

func (repo *journeyRepository) UpsertProgress(_ context.Context, p journey.Progress) (journey.Progress, error) {
	repo.progress.Lock()
	defer repo.progress.Unlock()

	for _, existing := range repo.progress.table {
		if existing.UserID == p.UserID && existing.StageID == p.StageID {
			p.ID = existing.ID
			break
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	repo.progress.table[p.ID] = &p
	return p, nil
}
