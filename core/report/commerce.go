package report

import (
	"math"
	"sort"

	"github.com/pathwayhq/pathway/core/ecommerce"
	"github.com/pathwayhq/pathway/core/trade"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/core/workflow"
)

type ECommerceRow struct {
	Platform   string `json:"platform"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"in_progress"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

// ECommerce counts the setups of `profiles` per platform and status, platforms sorted by name.
func ECommerce(profiles []user.User, setups []ecommerce.Setup) []ECommerceRow {
	idx := index(profiles)
	byPlatform := make(map[string]*ECommerceRow)
	for _, s := range setups {
		if _, ok := idx[s.UserID]; !ok {
			continue
		}
		row, ok := byPlatform[s.Platform]
		if !ok {
			row = &ECommerceRow{Platform: s.Platform}
			byPlatform[s.Platform] = row
		}
		switch s.Status {
		case workflow.SetupPending:
			row.Pending++
		case workflow.SetupInProgress:
			row.InProgress++
		case workflow.SetupCompleted:
			row.Completed++
		}
		row.Total++
	}

	rows := make([]ECommerceRow, 0, len(byPlatform))
	for _, row := range byPlatform {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Platform < rows[j].Platform })
	return rows
}

type TradeMonthRow struct {
	Month     string  `json:"month"` // YYYY-MM
	TradeType string  `json:"trade_type"`
	Currency  string  `json:"currency"`
	Count     int     `json:"count"`
	Amount    float64 `json:"amount"`
}

// TradesByMonth sums the trades of `profiles` within the period of `p` per month, type and currency.
// Only approved trades count, plus the pending ones if p.IncludePending.
func TradesByMonth(profiles []user.User, trades []trade.Trade, p Params) []TradeMonthRow {
	idx := index(profiles)
	type key struct{ month, tradeType, currency string }
	groups := make(map[key]*TradeMonthRow)
	for _, t := range trades {
		if _, ok := idx[t.UserID]; !ok || !p.inPeriod(t.TradeDate) {
			continue
		}
		if t.Status != workflow.TradeApproved && !(p.IncludePending && t.Status == workflow.TradePending) {
			continue
		}
		k := key{t.TradeDate.Format("2006-01"), t.TradeType, t.Currency}
		row, ok := groups[k]
		if !ok {
			row = &TradeMonthRow{Month: k.month, TradeType: k.tradeType, Currency: k.currency}
			groups[k] = row
		}
		row.Count++
		row.Amount += t.Amount
	}

	rows := make([]TradeMonthRow, 0, len(groups))
	for _, row := range groups {
		row.Amount = math.Round(row.Amount*100) / 100
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month < rows[j].Month
		}
		if rows[i].TradeType != rows[j].TradeType {
			return rows[i].TradeType < rows[j].TradeType
		}
		return rows[i].Currency < rows[j].Currency
	})
	return rows
}
