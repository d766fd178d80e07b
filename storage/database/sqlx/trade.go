package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/trade"
)

type tradeRow struct {
	ID            string      `db:"id"`
	UserID        string      `db:"user_id"`
	TradeType     string      `db:"trade_type"`
	Product       string      `db:"product"`
	Country       string      `db:"country"`
	Amount        float64     `db:"amount"`
	Currency      string      `db:"currency"`
	TradeDate     time.Time   `db:"trade_date"`
	AttachmentURL string      `db:"attachment_url"`
	Status        string      `db:"status"`
	ReviewNotes   null.String `db:"review_notes"`
	ReviewedBy    null.String `db:"reviewed_by"`
	ReviewedAt    null.Time   `db:"reviewed_at"`
	CreatedAt     time.Time   `db:"created_at"`
}

type tradeRepository struct {
	db *sqlx.DB
}

var _ trade.Repository = (*tradeRepository)(nil) // interface compliance check

func NewTradeRepository(db *sqlx.DB) trade.Repository {
	return &tradeRepository{db: db}
}

func (repo tradeRepository) boil(t trade.Trade) tradeRow {
	return tradeRow{
		ID:            t.ID,
		UserID:        t.UserID,
		TradeType:     t.TradeType,
		Product:       t.Product,
		Country:       t.Country,
		Amount:        t.Amount,
		Currency:      t.Currency,
		TradeDate:     core.Day(t.TradeDate),
		AttachmentURL: t.AttachmentURL,
		Status:        t.Status,
		ReviewNotes:   nullString(t.ReviewNotes),
		ReviewedBy:    nullString(t.ReviewedBy),
		ReviewedAt:    nullTimePtr(t.ReviewedAt),
		CreatedAt:     t.CreatedAt.UTC(),
	}
}

func (repo tradeRepository) unboil(row tradeRow) trade.Trade {
	return trade.Trade{
		ID:            row.ID,
		UserID:        row.UserID,
		TradeType:     row.TradeType,
		Product:       row.Product,
		Country:       row.Country,
		Amount:        row.Amount,
		Currency:      row.Currency,
		TradeDate:     core.Day(row.TradeDate),
		AttachmentURL: row.AttachmentURL,
		Status:        row.Status,
		ReviewNotes:   row.ReviewNotes.String,
		ReviewedBy:    row.ReviewedBy.String,
		ReviewedAt:    timePtr(row.ReviewedAt),
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

func (repo tradeRepository) CreateTrade(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	t.ID = uuid.NewString()
	const q = `
	INSERT INTO trades (id, user_id, trade_type, product, country, amount, currency, trade_date, attachment_url,
		status, review_notes, reviewed_by, reviewed_at, created_at)
	VALUES (:id, :user_id, :trade_type, :product, :country, :amount, :currency, :trade_date, :attachment_url,
		:status, :review_notes, :reviewed_by, :reviewed_at, :created_at)
	RETURNING *`

	var row tradeRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(t)); err != nil {
		return trade.Trade{}, errors.Wrap(err, "inserting trade")
	}
	return repo.unboil(row), nil
}

func (repo tradeRepository) QueryTrades(ctx context.Context, filter *trade.QueryFilter) ([]trade.Trade, error) {
	w := new(where)
	if filter != nil {
		w.in("user_id", filter.UserIDs)
		if filter.TradeType != "" {
			w.add("trade_type = ?", filter.TradeType)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if !filter.From.IsZero() {
			w.add("trade_date >= ?", core.Day(filter.From))
		}
		if !filter.To.IsZero() {
			w.add("trade_date <= ?", core.Day(filter.To))
		}
	}

	var rows []tradeRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM trades", " ORDER BY trade_date DESC, created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "selecting trades")
	}
	trades := make([]trade.Trade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, repo.unboil(row))
	}
	return trades, nil
}

func (repo tradeRepository) GetTrade(ctx context.Context, id string) (trade.Trade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return trade.Trade{}, trade.ErrNotFound
	}
	var row tradeRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM trades WHERE id = $1", id); err != nil {
		return trade.Trade{}, trapNoRowsErr(err, trade.ErrNotFound, "selecting trade")
	}
	return repo.unboil(row), nil
}

func (repo tradeRepository) UpdateReview(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	const q = `
	UPDATE trades SET status = :status, review_notes = :review_notes, reviewed_by = :reviewed_by,
		reviewed_at = :reviewed_at
	WHERE id = :id
	RETURNING *`

	var row tradeRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(t)); err != nil {
		return trade.Trade{}, trapNoRowsErr(err, trade.ErrNotFound, "updating trade review")
	}
	return repo.unboil(row), nil
}
