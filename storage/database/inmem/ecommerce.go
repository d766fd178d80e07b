package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core/ecommerce"
)

type ecommerceRepository struct {
	db *ecommerceTable
}

var _ ecommerce.Repository = (*ecommerceRepository)(nil) // interface compliance check

func NewECommerceRepository(db *DB) ecommerce.Repository {
	return &ecommerceRepository{db: db.ecommerce}
}

func (repo *ecommerceRepository) QuerySetups(_ context.Context, filter *ecommerce.QueryFilter) ([]ecommerce.Setup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	setups := make([]ecommerce.Setup, 0)
	for _, s := range repo.db.table {
		if filter.Match(*s) {
			setups = append(setups, *s)
		}
	}
	sort.Slice(setups, func(i, j int) bool { return setups[i].UpdatedAt.After(setups[j].UpdatedAt) })
	return setups, nil
}

func (repo *ecommerceRepository) GetUserSetup(_ context.Context, userID string) (ecommerce.Setup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.table {
		if s.UserID == userID {
			return *s, nil
		}
	}
	return ecommerce.Setup{}, ecommerce.ErrNotFound
}

func (repo *ecommerceRepository) UpsertSetup(_ context.Context, s ecommerce.Setup) (ecommerce.Setup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == s.UserID {
			s.ID = existing.ID
			s.CreatedAt = existing.CreatedAt
			break
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	repo.db.table[s.ID] = &s
	return s, nil
}
