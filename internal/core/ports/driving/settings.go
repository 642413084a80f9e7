package driving

import "github.com/custodia-labs/bookwyrm/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns stored settings merged over the defaults.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
