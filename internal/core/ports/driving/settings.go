package driving

import "github.com/custodia-labs/sercha-notes/internal/core/domain"

// SettingsService manages retrieval-core settings.
type SettingsService interface {
	// Get returns the effective settings (stored values over defaults).
	Get() (*domain.Settings, error)

	// Set parses and persists one setting by dot key.
	Set(key, value string) error

	// Keys lists every recognised setting key.
	Keys() []string
}
