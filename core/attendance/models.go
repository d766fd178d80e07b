package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

const dateLayout = "2006-01-02"

type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Attended tells whether the participant was there, late or not.
func (r Record) Attended() bool {
	return r.Status == StatusPresent || r.Status == StatusLate
}

type Mark struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=present absent late excused"`
	Notes  string `json:"notes"`
}

// BulkMark marks the attendance of several participants for one day.
type BulkMark struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Records []Mark `json:"records" validate:"required,min=1,dive"`
}

func (bm *BulkMark) Validate(validate *validator.Validate) error {
	bm.Date = core.CleanString(bm.Date)
	for i := range bm.Records {
		bm.Records[i].Status = core.CleanString(bm.Records[i].Status, true /* lower */)
		bm.Records[i].Notes = core.CleanString(bm.Records[i].Notes)
	}
	return validate.Struct(bm)
}

// Day returns the parsed date of a validated BulkMark.
func (bm *BulkMark) Day() time.Time {
	d, _ := time.Parse(dateLayout, bm.Date)
	return d
}

type QueryFilter struct {
	UserIDs []string
	Status  string
	From    time.Time
	To      time.Time
}

func (qf *QueryFilter) Match(r Record) bool {
	if qf == nil {
		return true
	}
	day := core.Day(r.Date)
	return (qf.UserIDs == nil || core.StringInSlice(r.UserID, qf.UserIDs)) &&
		(qf.Status == "" || r.Status == qf.Status) &&
		(qf.From.IsZero() || !day.Before(core.Day(qf.From))) &&
		(qf.To.IsZero() || !day.After(core.Day(qf.To)))
}
