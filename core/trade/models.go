package trade

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
)

// Trade types
const (
	TypeImport = "import"
	TypeExport = "export"
)

const dateLayout = "2006-01-02"

type Trade struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	TradeType     string     `json:"trade_type"`
	Product       string     `json:"product"`
	Country       string     `json:"country"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	TradeDate     time.Time  `json:"trade_date"`
	AttachmentURL string     `json:"attachment_url"`
	Status        string     `json:"status"`
	ReviewNotes   string     `json:"review_notes"`
	ReviewedBy    string     `json:"reviewed_by"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	CreatedAt     time.Time  `json:"created_at"` // UTC
}

// NewTrade is a trade logged by a participant, sent as a multipart form along with its receipt.
// AttachmentURL is set once the receipt is stored.
type NewTrade struct {
	TradeType     string  `form:"trade_type" validate:"required,oneof=import export"`
	Product       string  `form:"product" validate:"required,notblank"`
	Country       string  `form:"country" validate:"required,notblank"`
	Amount        float64 `form:"amount" validate:"gt=0"`
	Currency      string  `form:"currency" validate:"required,len=3,alpha"`
	Date          string  `form:"trade_date" validate:"required,datetime=2006-01-02"`
	AttachmentURL string  `form:"-"`
}

func (nt *NewTrade) Validate(validate *validator.Validate) error {
	nt.TradeType = core.CleanString(nt.TradeType, true /* lower */)
	nt.Currency = strings.ToUpper(core.CleanString(nt.Currency))
	nt.Date = core.CleanString(nt.Date)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	nt.Product = core.CleanString(nt.Product)
	nt.Country = core.CleanString(nt.Country)
	return nil
}

// TradeDate returns the parsed date of a validated NewTrade.
func (nt *NewTrade) TradeDate() time.Time {
	d, _ := time.Parse(dateLayout, nt.Date)
	return d
}

type Review struct {
	Status      string `json:"status" validate:"required,oneof=approved rejected"`
	ReviewNotes string `json:"review_notes"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	r.Status = core.CleanString(r.Status, true /* lower */)
	r.ReviewNotes = core.CleanString(r.ReviewNotes)
	return validate.Struct(r)
}

type QueryFilter struct {
	UserIDs   []string
	TradeType string
	Status    string
	From      time.Time
	To        time.Time
}

func (qf *QueryFilter) Match(t Trade) bool {
	if qf == nil {
		return true
	}
	day := core.Day(t.TradeDate)
	return (qf.UserIDs == nil || core.StringInSlice(t.UserID, qf.UserIDs)) &&
		(qf.TradeType == "" || t.TradeType == qf.TradeType) &&
		(qf.Status == "" || t.Status == qf.Status) &&
		(qf.From.IsZero() || !day.Before(core.Day(qf.From))) &&
		(qf.To.IsZero() || !day.After(core.Day(qf.To)))
}
