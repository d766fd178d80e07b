package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
)

type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type Submission struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	TaskID        string     `json:"task_id"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
	AttachmentURL string     `json:"attachment_url"`
	ReviewNotes   string     `json:"review_notes"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	VerifiedBy    string     `json:"verified_by"`
	VerifiedAt    *time.Time `json:"verified_at"`
	CreatedAt     time.Time  `json:"created_at"` // UTC
	UpdatedAt     time.Time  `json:"updated_at"` // UTC
}

type NewTask struct {
	Title        string `json:"title" validate:"required,notblank"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
	IsActive     *bool  `json:"is_active"`
}

// Validate trims the fields after validation for notblank to see a whitespace-only title.
func (nt *NewTask) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nt); err != nil {
		return err
	}
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return nil
}

type UpdateTask struct {
	Title        *string `json:"title" validate:"omitempty,notblank"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,min=0"`
	IsActive     *bool   `json:"is_active"`
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	return validate.Struct(ut)
}

// SubmitTask is what a participant sends for a task. AttachmentURL is set once the upload is stored.
type SubmitTask struct {
	Notes         string `json:"notes" form:"notes"`
	AttachmentURL string `json:"-" form:"-"`
}

func (st *SubmitTask) Validate(validate *validator.Validate) error {
	st.Notes = core.CleanString(st.Notes)
	return validate.Struct(st)
}

type Review struct {
	Status      string `json:"status" validate:"required,oneof=verified rejected"`
	ReviewNotes string `json:"review_notes"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	r.Status = core.CleanString(r.Status, true /* lower */)
	r.ReviewNotes = core.CleanString(r.ReviewNotes)
	return validate.Struct(r)
}

type SubmissionFilter struct {
	UserIDs []string
	TaskID  string
	Status  string
}

func (sf *SubmissionFilter) Match(s Submission) bool {
	if sf == nil {
		return true
	}
	return (sf.UserIDs == nil || core.StringInSlice(s.UserID, sf.UserIDs)) &&
		(sf.TaskID == "" || s.TaskID == sf.TaskID) &&
		(sf.Status == "" || s.Status == sf.Status)
}
