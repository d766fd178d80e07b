package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core/navigation"
)

type navigationRepository struct {
	db *navigationTable
}

var _ navigation.Repository = (*navigationRepository)(nil) // interface compliance check

func NewNavigationRepository(db *DB) navigation.Repository {
	return &navigationRepository{db: db.navigation}
}

// checkConstraints mirrors the partial unique indexes of role_navigation_settings.
func (repo *navigationRepository) checkConstraints(s navigation.Setting) error {
	for _, existing := range repo.db.table {
		if existing.ID == s.ID || existing.Role != s.Role {
			continue
		}
		if !s.IsCustom && !existing.IsCustom && existing.PagePath == s.PagePath {
			return errors.Errorf("duplicate navigation page %s for role %s", s.PagePath, s.Role)
		}
		if s.IsDefault && existing.IsDefault {
			return errors.Errorf("role %s already has a default page", s.Role)
		}
	}
	return nil
}

func (repo *navigationRepository) QuerySettings(_ context.Context, role string) ([]navigation.Setting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	settings := make([]navigation.Setting, 0)
	for _, s := range repo.db.table {
		if s.Role == role {
			settings = append(settings, *s)
		}
	}
	sort.Slice(settings, func(i, j int) bool {
		if settings[i].DisplayOrder != settings[j].DisplayOrder {
			return settings[i].DisplayOrder < settings[j].DisplayOrder
		}
		return settings[i].PagePath < settings[j].PagePath
	})
	return settings, nil
}

func (repo *navigationRepository) GetSetting(_ context.Context, id string) (navigation.Setting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return navigation.Setting{}, navigation.ErrNotFound
}

func (repo *navigationRepository) CreateSetting(_ context.Context, s navigation.Setting) (navigation.Setting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.NewString()
	if err := repo.checkConstraints(s); err != nil {
		return navigation.Setting{}, err
	}
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *navigationRepository) UpdateSetting(_ context.Context, s navigation.Setting) (navigation.Setting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.ID]; !ok {
		return navigation.Setting{}, navigation.ErrNotFound
	}
	if err := repo.checkConstraints(s); err != nil {
		return navigation.Setting{}, err
	}
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *navigationRepository) DeleteSetting(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return navigation.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
