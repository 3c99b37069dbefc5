package driving

import "github.com/custodia-labs/docugraph/internal/core/domain"

// SettingsService assembles application settings from the config file and
// the environment.
type SettingsService interface {
	// Load returns the effective settings. Environment variables take
	// precedence over the config file, which takes precedence over defaults.
	Load() (domain.Settings, error)

	// Set persists a single config file key.
	Set(key string, value any) error

	// Path returns the config file location.
	Path() string
}
