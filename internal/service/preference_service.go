package service

import (
	"context"
	"fmt"

	"github.com/mibandtool/wftool/internal/storage"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// PreferenceService reads and writes user preferences kept in the durable bucket.
type PreferenceService struct {
	store storage.Store
}

// NewPreferenceService constructs PreferenceService.
func NewPreferenceService(store storage.Store) *PreferenceService {
	return &PreferenceService{store: store}
}

// Theme returns the stored theme, light by default.
func (s *PreferenceService) Theme(ctx context.Context) (string, error) {
	return storage.GetOr(ctx, s.store, storage.Durable, storage.KeyTheme, ThemeLight)
}

// SetTheme stores light or dark.
func (s *PreferenceService) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return s.store.Set(ctx, storage.Durable, storage.KeyTheme, theme)
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *PreferenceService) ToggleTheme(ctx context.Context) (string, error) {
	current, err := s.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	return next, s.SetTheme(ctx, next)
}
