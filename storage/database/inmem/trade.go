package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core/trade"
)

type tradeRepository struct {
	db *tradeTable
}

var _ trade.Repository = (*tradeRepository)(nil) // interface compliance check

func NewTradeRepository(db *DB) trade.Repository {
	return &tradeRepository{db: db.trade}
}

func (repo *tradeRepository) CreateTrade(_ context.Context, t trade.Trade) (trade.Trade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.NewString()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *tradeRepository) QueryTrades(_ context.Context, filter *trade.QueryFilter) ([]trade.Trade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	trades := make([]trade.Trade, 0)
	for _, t := range repo.db.table {
		if filter.Match(*t) {
			trades = append(trades, *t)
		}
	}
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].TradeDate.Equal(trades[j].TradeDate) {
			return trades[i].TradeDate.After(trades[j].TradeDate)
		}
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
	return trades, nil
}

func (repo *tradeRepository) GetTrade(_ context.Context, id string) (trade.Trade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return trade.Trade{}, trade.ErrNotFound
}

func (repo *tradeRepository) UpdateReview(_ context.Context, t trade.Trade) (trade.Trade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[t.ID]
	if !ok {
		return trade.Trade{}, trade.ErrNotFound
	}
	updated := *existing
	updated.Status = t.Status
	updated.ReviewNotes = t.ReviewNotes
	updated.ReviewedBy = t.ReviewedBy
	updated.ReviewedAt = t.ReviewedAt
	repo.db.table[t.ID] = &updated
	return updated, nil
}
