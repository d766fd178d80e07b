// Package navigation manages the per-role navigation menus and the role gate of the frontend routes.
package navigation

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/user"
)

// Route access results
const (
	AccessOK       = "ok"
	AccessDenied   = "access_denied"
	AccessNotFound = "not_found"
)

// Page is a frontend route. A nil Roles means any role, including anonymous visitors.
type Page struct {
	Path  string
	Label string
	Icon  string
	Roles []string
	// InMenu is false for the pages never listed in the navigation menu.
	InMenu bool
}

var (
	learners = []string{user.RoleParticipant, user.RoleCoach, user.RoleAdmin}

	Pages = []Page{
		{Path: "/auth", Label: "Sign in", Icon: "log-in"},
		{Path: "/", Label: "Home", Icon: "home"},
		{Path: "/dashboard", Label: "Dashboard", Icon: "layout-dashboard", Roles: user.AllRoles, InMenu: true},
		{Path: "/journey", Label: "Journey", Icon: "map", Roles: learners, InMenu: true},
		{Path: "/tasks", Label: "Tasks", Icon: "check-square", Roles: learners, InMenu: true},
		{Path: "/documents", Label: "Documents", Icon: "file-text", Roles: learners, InMenu: true},
		{Path: "/attendance", Label: "Attendance", Icon: "calendar-check", Roles: learners, InMenu: true},
		{Path: "/trades", Label: "Trades", Icon: "ship", Roles: learners, InMenu: true},
		{Path: "/analytics", Label: "Analytics", Icon: "bar-chart", Roles: []string{user.RoleCoach, user.RoleAdmin}, InMenu: true},
		{Path: "/coach", Label: "My participants", Icon: "users", Roles: []string{user.RoleCoach, user.RoleAdmin}, InMenu: true},
		{Path: "/admin", Label: "Administration", Icon: "shield", Roles: []string{user.RoleAdmin}, InMenu: true},
		{Path: "/ecommerce", Label: "E-Commerce", Icon: "shopping-cart", Roles: []string{user.RoleEcommerce, user.RoleAdmin}, InMenu: true},
		{Path: "/finance", Label: "Finance", Icon: "wallet", Roles: []string{user.RoleFinance, user.RoleAdmin}, InMenu: true},
		{Path: "/settings", Label: "Settings", Icon: "settings", Roles: user.AllRoles, InMenu: true},
	}
)

func cleanPath(p string) string {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	p = path.Clean("/" + strings.TrimSpace(p))
	return strings.ToLower(p)
}

// FindPage returns the page serving `p`, ignoring trailing slashes and query strings.
func FindPage(p string) (Page, bool) {
	p = cleanPath(p)
	for _, page := range Pages {
		if page.Path == p {
			return page, true
		}
	}
	return Page{}, false
}

// CanAccessRoute tells whether `role` may open the page at `p`. An empty role is an anonymous visitor.
// Denied roles are shown an access-denied card, unknown paths the catch-all not-found page.
func CanAccessRoute(role, p string) (bool, string) {
	page, ok := FindPage(p)
	if !ok {
		return false, AccessNotFound
	}
	if page.Roles == nil || core.StringInSlice(role, page.Roles) {
		return true, AccessOK
	}
	return false, AccessDenied
}

// DefaultMenu lists the menu pages of `role`, in catalog order.
func DefaultMenu(role string) []Page {
	var pages []Page
	for _, page := range Pages {
		if page.InMenu && core.StringInSlice(role, page.Roles) {
			pages = append(pages, page)
		}
	}
	return pages
}

// DefaultLanding is the default page of every role until an admin picks another one.
const DefaultLanding = "/dashboard"

type Setting struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	PagePath     string    `json:"page_path"`
	Label        string    `json:"label"`
	Icon         string    `json:"icon"`
	IsVisible    bool      `json:"is_visible"`
	DisplayOrder int       `json:"display_order"`
	IsDefault    bool      `json:"is_default"`
	IsCustom     bool      `json:"is_custom"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type UpdateSetting struct {
	Label     *string `json:"label" validate:"omitempty,notblank,max=100"`
	Icon      *string `json:"icon" validate:"omitempty,max=50"`
	IsVisible *bool   `json:"is_visible"`
}

func (us *UpdateSetting) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

// Reorder sets display_order to the position of each id in IDs.
// Settings of the role missing from IDs keep their relative order after the listed ones.
type Reorder struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

func (r *Reorder) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type NewCustomLink struct {
	Role  string `json:"role" validate:"required,role"`
	Label string `json:"label" validate:"required,notblank,max=100"`
	URL   string `json:"url" validate:"required,url"`
	Icon  string `json:"icon" validate:"max=50"`
}

func (nl *NewCustomLink) Validate(validate *validator.Validate) error {
	nl.Role = core.CleanString(nl.Role, true /* lower */)
	nl.URL = core.CleanString(nl.URL)
	nl.Icon = core.CleanString(nl.Icon)
	// label is trimmed after validation for notblank to see it
	if err := validate.Struct(nl); err != nil {
		return err
	}
	nl.Label = core.CleanString(nl.Label)
	return nil
}
