package navigation

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/user"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("navigation setting")
	ErrNotCustom      = errors.New("only custom links can be deleted")
	ErrHiddenDefault  = errors.New("the default page must be visible")
	ErrInvalidReorder = errors.New("every id must be a setting of the role")
	ErrDuplicateOrder = errors.New("ids must not repeat")
)

type (
	Repository interface {
		// QuerySettings returns the settings of `role` ordered by display_order.
		QuerySettings(ctx context.Context, role string) ([]Setting, error)
		GetSetting(ctx context.Context, id string) (Setting, error)
		CreateSetting(ctx context.Context, s Setting) (Setting, error)
		UpdateSetting(ctx context.Context, s Setting) (Setting, error)
		DeleteSetting(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Settings(ctx context.Context, role string) ([]Setting, error)
		Update(ctx context.Context, admin user.User, id string, us UpdateSetting) (Setting, error)
		// Reorder saves the new positions one row at a time: a failure leaves the earlier rows moved.
		Reorder(ctx context.Context, admin user.User, role string, r Reorder) ([]Setting, error)
		// SetDefault makes `id` the landing page of its role, clearing the previous default first.
		SetDefault(ctx context.Context, admin user.User, id string) (Setting, error)
		AddCustomLink(ctx context.Context, admin user.User, nl NewCustomLink) (Setting, error)
		DeleteCustomLink(ctx context.Context, admin user.User, id string) error
		// Menu returns the visible settings of `role`, in display order.
		Menu(ctx context.Context, role string) ([]Setting, error)
		// DefaultPage returns the landing page path of `role`.
		DefaultPage(ctx context.Context, role string) (string, error)
		// Seed creates the missing default settings of every role and returns how many were created.
		Seed(ctx context.Context) (int, error)
	}

	service struct {
		repo     Repository
		auditLog audit.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, auditLog audit.Logger) ServiceInterface {
	return &service{repo: repo, auditLog: auditLog}
}

func (svc *service) Settings(ctx context.Context, role string) ([]Setting, error) {
	return svc.repo.QuerySettings(ctx, role)
}

func (svc *service) log(ctx context.Context, admin user.User, s Setting, action, details string) error {
	return svc.auditLog.Log(ctx, audit.Entry{
		ActorID:   admin.ID,
		TableName: audit.TableNavigation,
		RecordID:  s.ID,
		Action:    action,
		Details:   details,
	})
}

func (svc *service) Update(ctx context.Context, admin user.User, id string, us UpdateSetting) (Setting, error) {
	if !admin.IsAdmin() {
		return Setting{}, core.ErrPermissionDenied
	}
	s, err := svc.repo.GetSetting(ctx, id)
	if err != nil {
		return Setting{}, err
	}
	if us.Label != nil {
		s.Label = core.CleanString(*us.Label)
	}
	if us.Icon != nil {
		s.Icon = core.CleanString(*us.Icon)
	}
	if us.IsVisible != nil {
		if s.IsDefault && !*us.IsVisible {
			return Setting{}, core.NewValidationError(ErrHiddenDefault, core.FieldError{Field: "is_visible", Error: ErrHiddenDefault.Error()})
		}
		s.IsVisible = *us.IsVisible
	}
	s.UpdatedAt = time.Now().UTC()

	if s, err = svc.repo.UpdateSetting(ctx, s); err != nil {
		return Setting{}, errors.Wrap(err, "saving navigation setting")
	}
	return s, svc.log(ctx, admin, s, audit.ActionUpdate, s.Role+" "+s.PagePath)
}

func (svc *service) Reorder(ctx context.Context, admin user.User, role string, r Reorder) ([]Setting, error) {
	if !admin.IsAdmin() {
		return nil, core.ErrPermissionDenied
	}
	settings, err := svc.repo.QuerySettings(ctx, role)
	if err != nil {
		return nil, errors.Wrap(err, "querying navigation settings")
	}
	byID := make(map[string]Setting, len(settings))
	for _, s := range settings {
		byID[s.ID] = s
	}
	ids := make([]string, 0, len(settings))
	seen := make(map[string]bool, len(r.IDs))
	for _, id := range r.IDs {
		if _, ok := byID[id]; !ok {
			return nil, core.NewValidationError(ErrInvalidReorder, core.FieldError{Field: "ids", Error: ErrInvalidReorder.Error()})
		}
		if seen[id] {
			return nil, core.NewValidationError(ErrDuplicateOrder, core.FieldError{Field: "ids", Error: ErrDuplicateOrder.Error()})
		}
		seen[id] = true
		ids = append(ids, id)
	}
	// settings left out follow the given ones, in their current order
	for _, s := range settings {
		if !seen[s.ID] {
			ids = append(ids, s.ID)
		}
	}

	now := time.Now().UTC()
	for i, id := range ids {
		s := byID[id]
		if s.DisplayOrder == i {
			continue
		}
		s.DisplayOrder = i
		s.UpdatedAt = now
		if _, err = svc.repo.UpdateSetting(ctx, s); err != nil {
			return nil, errors.Wrap(err, "saving navigation order")
		}
	}
	return svc.repo.QuerySettings(ctx, role)
}

func (svc *service) SetDefault(ctx context.Context, admin user.User, id string) (Setting, error) {
	if !admin.IsAdmin() {
		return Setting{}, core.ErrPermissionDenied
	}
	s, err := svc.repo.GetSetting(ctx, id)
	if err != nil {
		return Setting{}, err
	}
	if s.IsDefault {
		return s, nil
	}
	if !s.IsVisible {
		return Setting{}, core.NewValidationError(ErrHiddenDefault, core.FieldError{Field: "is_visible", Error: ErrHiddenDefault.Error()})
	}

	settings, err := svc.repo.QuerySettings(ctx, s.Role)
	if err != nil {
		return Setting{}, errors.Wrap(err, "querying navigation settings")
	}
	now := time.Now().UTC()
	for _, other := range settings {
		if other.IsDefault {
			other.IsDefault = false
			other.UpdatedAt = now
			if _, err = svc.repo.UpdateSetting(ctx, other); err != nil {
				return Setting{}, errors.Wrap(err, "clearing default page")
			}
		}
	}

	s.IsDefault = true
	s.UpdatedAt = now
	if s, err = svc.repo.UpdateSetting(ctx, s); err != nil {
		return Setting{}, errors.Wrap(err, "saving default page")
	}
	return s, svc.log(ctx, admin, s, audit.ActionUpdate, "default page of "+s.Role+": "+s.PagePath)
}

func (svc *service) AddCustomLink(ctx context.Context, admin user.User, nl NewCustomLink) (Setting, error) {
	if !admin.IsAdmin() {
		return Setting{}, core.ErrPermissionDenied
	}
	settings, err := svc.repo.QuerySettings(ctx, nl.Role)
	if err != nil {
		return Setting{}, errors.Wrap(err, "querying navigation settings")
	}

	now := time.Now().UTC()
	s, err := svc.repo.CreateSetting(ctx, Setting{
		Role:         nl.Role,
		PagePath:     nl.URL,
		Label:        nl.Label,
		Icon:         nl.Icon,
		IsVisible:    true,
		DisplayOrder: len(settings),
		IsCustom:     true,
		URL:          nl.URL,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Setting{}, errors.Wrap(err, "saving custom link")
	}
	return s, svc.log(ctx, admin, s, audit.ActionCreate, s.Role+" "+s.URL)
}

func (svc *service) DeleteCustomLink(ctx context.Context, admin user.User, id string) error {
	if !admin.IsAdmin() {
		return core.ErrPermissionDenied
	}
	s, err := svc.repo.GetSetting(ctx, id)
	if err != nil {
		return err
	}
	if !s.IsCustom {
		return core.NewValidationError(ErrNotCustom, core.FieldError{Field: "id", Error: ErrNotCustom.Error()})
	}
	if err = svc.repo.DeleteSetting(ctx, s.ID); err != nil {
		return errors.Wrap(err, "deleting custom link")
	}
	return svc.log(ctx, admin, s, audit.ActionDelete, s.Role+" "+s.URL)
}

func (svc *service) Menu(ctx context.Context, role string) ([]Setting, error) {
	settings, err := svc.repo.QuerySettings(ctx, role)
	if err != nil {
		return nil, err
	}
	menu := make([]Setting, 0, len(settings))
	for _, s := range settings {
		if s.IsVisible {
			menu = append(menu, s)
		}
	}
	return menu, nil
}

func (svc *service) DefaultPage(ctx context.Context, role string) (string, error) {
	settings, err := svc.repo.QuerySettings(ctx, role)
	if err != nil {
		return "", err
	}
	for _, s := range settings {
		if s.IsDefault {
			return s.PagePath, nil
		}
	}
	return DefaultLanding, nil
}

func (svc *service) Seed(ctx context.Context) (int, error) {
	created := 0
	now := time.Now().UTC()
	for _, role := range user.AllRoles {
		settings, err := svc.repo.QuerySettings(ctx, role)
		if err != nil {
			return created, errors.Wrapf(err, "querying %s navigation settings", role)
		}
		existing := make(map[string]bool, len(settings))
		hasDefault := false
		for _, s := range settings {
			if !s.IsCustom {
				existing[s.PagePath] = true
			}
			hasDefault = hasDefault || s.IsDefault
		}

		order := len(settings)
		for _, page := range DefaultMenu(role) {
			if existing[page.Path] {
				continue
			}
			_, err = svc.repo.CreateSetting(ctx, Setting{
				Role:         role,
				PagePath:     page.Path,
				Label:        page.Label,
				Icon:         page.Icon,
				IsVisible:    true,
				DisplayOrder: order,
				IsDefault:    !hasDefault && page.Path == DefaultLanding,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				return created, errors.Wrapf(err, "creating %s navigation setting %s", role, page.Path)
			}
			order++
			created++
		}
	}
	return created, nil
}
