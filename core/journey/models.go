package journey

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/user"
)

// Stage names
const (
	StageEnrollment    = "Enrollment"
	StageFeesPaid      = "Fees Paid"
	StageOrientation   = "Orientation"
	StageDocumentation = "Documentation"
	StageTasks         = "Tasks Completion"
	StageEcommerce     = "E-Commerce Setup"
	StageTrades        = "Trade Logging"
)

// DefaultStages is the stage catalog, as seeded by the migrations.
var DefaultStages = []Stage{
	{ID: "a49d9c72-5480-45a3-b4f5-79fa70a9a60d", Name: StageEnrollment, Description: "Submit the enrollment form and documents.", DisplayOrder: 1},
	{ID: "43211a3d-505e-440b-9249-0e12fae8c57c", Name: StageFeesPaid, Description: "Program fees received by the finance team.", DisplayOrder: 2},
	{ID: "30c72115-f765-4b0d-87f7-dbdb5fe47054", Name: StageOrientation, Description: "Attend the orientation session.", DisplayOrder: 3},
	{ID: "ae7aabb5-3c7e-4c6e-a3cc-1ef5e9155cb8", Name: StageDocumentation, Description: "Upload and get the required documents approved.", DisplayOrder: 4},
	{ID: "b6c44021-9c3c-4368-b369-bb70e66a976f", Name: StageTasks, Description: "Complete and get every task verified.", DisplayOrder: 5},
	{ID: "226a42ad-dc32-4eb6-9294-0cdaa0c5e9e9", Name: StageEcommerce, Description: "Set up an online store.", DisplayOrder: 6},
	{ID: "ec92dcdc-1f74-42c8-ab13-df917be4fe1e", Name: StageTrades, Description: "Log import and export trades.", DisplayOrder: 7},
}

// CanMutateStage tells whether `role` may update a participant's progress on the stage named `stageName`:
//   - admin: every stage
//   - finance: "Fees Paid" only
//   - ecommerce: "E-Commerce Setup" only
//   - coach: every stage except "Fees Paid" and "E-Commerce Setup"
//   - anybody else: none
func CanMutateStage(role, stageName string) bool {
	switch role {
	case user.RoleAdmin:
		return true
	case user.RoleFinance:
		return stageName == StageFeesPaid
	case user.RoleEcommerce:
		return stageName == StageEcommerce
	case user.RoleCoach:
		return stageName != StageFeesPaid && stageName != StageEcommerce
	default:
		return false
	}
}

type Stage struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

type Progress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	StageID     string     `json:"stage_id"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedBy   string     `json:"updated_by"`
	Notes       string     `json:"notes"`
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

// StageProgress is a stage of a participant's journey, annotated for the viewer.
type StageProgress struct {
	Stage    Stage     `json:"stage"`
	Status   string    `json:"status"`
	Progress *Progress `json:"progress"`
	CanEdit  bool      `json:"can_edit"`
}

type UpdateProgress struct {
	Status string  `json:"status" validate:"required,oneof=not_started in_progress completed"`
	Notes  *string `json:"notes"`
}

func (up *UpdateProgress) Validate(validate *validator.Validate) error {
	up.Status = core.CleanString(up.Status, true /* lower */)
	return validate.Struct(up)
}

type ProgressFilter struct {
	UserIDs []string
	StageID string
	Status  string
}

func (pf *ProgressFilter) Match(p Progress) bool {
	if pf == nil {
		return true
	}
	return (pf.UserIDs == nil || core.StringInSlice(p.UserID, pf.UserIDs)) &&
		(pf.StageID == "" || p.StageID == pf.StageID) &&
		(pf.Status == "" || p.Status == pf.Status)
}
