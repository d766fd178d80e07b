package document

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
)

// Document types
const (
	TypeIDCard               = "id_card"
	TypePassportPhoto        = "passport_photo"
	TypeProofOfAddress       = "proof_of_address"
	TypeBusinessRegistration = "business_registration"
	TypeTaxCertificate       = "tax_certificate"
	TypeBankStatement        = "bank_statement"
)

var Types = []string{
	TypeIDCard,
	TypePassportPhoto,
	TypeProofOfAddress,
	TypeBusinessRegistration,
	TypeTaxCertificate,
	TypeBankStatement,
}

type Document struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	DocumentType string     `json:"document_type"`
	FileURL      string     `json:"file_url"`
	Status       string     `json:"status"`
	ReviewNotes  string     `json:"review_notes"`
	ReviewedBy   string     `json:"reviewed_by"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

// NewDocument is an uploaded document. FileURL is set once the upload is stored.
type NewDocument struct {
	DocumentType string `form:"document_type" validate:"required,doctype"`
	FileURL      string `form:"-"`
}

func (nd *NewDocument) Validate(validate *validator.Validate) error {
	nd.DocumentType = core.CleanString(nd.DocumentType, true /* lower */)
	return validate.Struct(nd)
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
	UserIDs      []string
	DocumentType string
	Status       string
}

func (qf *QueryFilter) Match(d Document) bool {
	if qf == nil {
		return true
	}
	return (qf.UserIDs == nil || core.StringInSlice(d.UserID, qf.UserIDs)) &&
		(qf.DocumentType == "" || d.DocumentType == qf.DocumentType) &&
		(qf.Status == "" || d.Status == qf.Status)
}
