package ecommerce

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
)

// Platforms
const (
	PlatformShopify     = "shopify"
	PlatformWooCommerce = "woocommerce"
	PlatformAmazon      = "amazon"
	PlatformEtsy        = "etsy"
	PlatformJumia       = "jumia"
	PlatformOther       = "other"
)

var Platforms = []string{
	PlatformShopify,
	PlatformWooCommerce,
	PlatformAmazon,
	PlatformEtsy,
	PlatformJumia,
	PlatformOther,
}

type Setup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Platform  string    `json:"platform"`
	StoreName string    `json:"store_name"`
	StoreURL  string    `json:"store_url"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type SaveSetup struct {
	Platform  string `json:"platform" validate:"required,platform"`
	StoreName string `json:"store_name" validate:"required,notblank,max=200"`
	StoreURL  string `json:"store_url" validate:"omitempty,url"`
	Status    string `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Notes     string `json:"notes"`
}

func (ss *SaveSetup) Validate(validate *validator.Validate) error {
	ss.Platform = core.CleanString(ss.Platform, true /* lower */)
	ss.StoreURL = core.CleanString(ss.StoreURL)
	ss.Status = core.CleanString(ss.Status, true /* lower */)
	if err := validate.Struct(ss); err != nil {
		return err
	}
	ss.StoreName = core.CleanString(ss.StoreName)
	ss.Notes = core.CleanString(ss.Notes)
	return nil
}

type QueryFilter struct {
	UserIDs  []string
	Platform string
	Status   string
}

func (qf *QueryFilter) Match(s Setup) bool {
	if qf == nil {
		return true
	}
	return (qf.UserIDs == nil || core.StringInSlice(s.UserID, qf.UserIDs)) &&
		(qf.Platform == "" || s.Platform == qf.Platform) &&
		(qf.Status == "" || s.Status == qf.Status)
}
