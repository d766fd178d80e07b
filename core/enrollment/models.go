package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
)

type Enrollment struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Status       string    `json:"status"`
	DocumentURLs []string  `json:"document_urls"`
	Notes        string    `json:"notes"`
	UpdatedBy    string    `json:"updated_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewEnrollment is sent as a multipart form. DocumentURLs are set once the uploaded files are stored.
type NewEnrollment struct {
	Notes        string   `form:"notes"`
	DocumentURLs []string `form:"-"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.Notes = core.CleanString(ne.Notes)
	return validate.Struct(ne)
}

// DocumentsSent is the participant's confirmation that they sent the signed documents back to the office.
type DocumentsSent struct {
	Notes        string   `form:"notes"`
	DocumentURLs []string `form:"-"`
}

func (ds *DocumentsSent) Validate(validate *validator.Validate) error {
	ds.Notes = core.CleanString(ds.Notes)
	return validate.Struct(ds)
}

// UpdateStatus is a direct status selection by staff.
type UpdateStatus struct {
	Status string  `json:"status" validate:"required,oneof=submitted documents_sent_to_user documents_sent_to_office completed"`
	Notes  *string `json:"notes"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	UserIDs []string
	Status  string
}

func (qf *QueryFilter) Match(e Enrollment) bool {
	if qf == nil {
		return true
	}
	return (qf.UserIDs == nil || core.StringInSlice(e.UserID, qf.UserIDs)) &&
		(qf.Status == "" || e.Status == qf.Status)
}
