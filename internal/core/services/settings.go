package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// setting binds one config key to a settings field.
type setting struct {
	key   string
	load  func(s *domain.Settings, store driven.ConfigStore)
	apply func(s *domain.Settings, value string) (any, error)
}

func intSetting(key string, field func(*domain.Settings) *int) setting {
	return setting{
		key: key,
		load: func(s *domain.Settings, store driven.ConfigStore) {
			*field(s) = store.GetInt(key)
		},
		apply: func(s *domain.Settings, value string) (any, error) {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
			}
			*field(s) = n
			return n, nil
		},
	}
}

func floatSetting(key string, field func(*domain.Settings) *float64) setting {
	return setting{
		key: key,
		load: func(s *domain.Settings, store driven.ConfigStore) {
			*field(s) = store.GetFloat(key)
		},
		apply: func(s *domain.Settings, value string) (any, error) {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
			}
			*field(s) = f
			return f, nil
		},
	}
}

func stringSetting(key string, field func(*domain.Settings) *string) setting {
	return setting{
		key: key,
		load: func(s *domain.Settings, store driven.ConfigStore) {
			*field(s) = store.GetString(key)
		},
		apply: func(s *domain.Settings, value string) (any, error) {
			*field(s) = value
			return value, nil
		},
	}
}

func listSetting(key string, field func(*domain.Settings) *[]string) setting {
	return setting{
		key: key,
		load: func(s *domain.Settings, store driven.ConfigStore) {
			*field(s) = store.GetStringSlice(key)
		},
		apply: func(s *domain.Settings, value string) (any, error) {
			var items []string
			for _, item := range strings.Split(value, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			*field(s) = items
			return items, nil
		},
	}
}

func secondsSetting(key string, field func(*domain.Settings) *time.Duration) setting {
	return setting{
		key: key,
		load: func(s *domain.Settings, store driven.ConfigStore) {
			*field(s) = time.Duration(store.GetInt(key)) * time.Second
		},
		apply: func(s *domain.Settings, value string) (any, error) {
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%w: %s expects a positive number of seconds", domain.ErrInvalidInput, key)
			}
			*field(s) = time.Duration(n) * time.Second
			return n, nil
		},
	}
}

// settingsTable lists every recognised key.
var settingsTable = []setting{
	stringSetting("vault.path", func(s *domain.Settings) *string { return &s.Vault.Path }),
	intSetting("search.result_cap", func(s *domain.Settings) *int { return &s.Search.ResultCap }),
	floatSetting("search.freshness_boost", func(s *domain.Settings) *float64 { return &s.Search.FreshnessBoost }),
	floatSetting("search.authority_boost", func(s *domain.Settings) *float64 { return &s.Search.AuthorityBoost }),
	intSetting("search.freshness_window_days", func(s *domain.Settings) *int { return &s.Search.FreshnessWindowDays }),
	intSetting("search.excerpt_chars", func(s *domain.Settings) *int { return &s.Search.ExcerptChars }),
	stringSetting("search.highlight_marker", func(s *domain.Settings) *string { return &s.Search.HighlightMarker }),
	floatSetting("context.cluster_threshold", func(s *domain.Settings) *float64 { return &s.Context.ClusterThreshold }),
	intSetting("context.min_cluster_size", func(s *domain.Settings) *int { return &s.Context.MinClusterSize }),
	intSetting("context.max_cluster_size", func(s *domain.Settings) *int { return &s.Context.MaxClusterSize }),
	intSetting("context.max_clusters", func(s *domain.Settings) *int { return &s.Context.MaxClusters }),
	intSetting("context.token_budget", func(s *domain.Settings) *int { return &s.Context.TokenBudget }),
	intSetting("context.max_related", func(s *domain.Settings) *int { return &s.Context.MaxRelated }),
	intSetting("context.active_window_days", func(s *domain.Settings) *int { return &s.Context.ActiveWindowDays }),
	listSetting("context.project_tag_prefixes", func(s *domain.Settings) *[]string { return &s.Context.ProjectTagPrefixes }),
	intSetting("bench.concurrency", func(s *domain.Settings) *int { return &s.Bench.Concurrency }),
	secondsSetting("bench.query_timeout_seconds", func(s *domain.Settings) *time.Duration { return &s.Bench.QueryTimeout }),
	floatSetting("bench.requests_per_second", func(s *domain.Settings) *float64 { return &s.Bench.RequestsPerSecond }),
	intSetting("bench.top_k", func(s *domain.Settings) *int { return &s.Bench.TopK }),
	floatSetting("gates.precision_at_k", func(s *domain.Settings) *float64 { return &s.Gates.PrecisionAtK }),
	floatSetting("gates.mrr", func(s *domain.Settings) *float64 { return &s.Gates.MRR }),
	floatSetting("gates.ndcg_at_k", func(s *domain.Settings) *float64 { return &s.Gates.NDCGAtK }),
	floatSetting("gates.next_step_rate", func(s *domain.Settings) *float64 { return &s.Gates.NextStepRate }),
	floatSetting("gates.max_ece", func(s *domain.Settings) *float64 { return &s.Gates.MaxECE }),
	floatSetting("gates.max_brier", func(s *domain.Settings) *float64 { return &s.Gates.MaxBrier }),
}

// SettingsService maps dot keys in the config store onto domain settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns stored values layered over the defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()
	if s.configStore == nil {
		return &settings, nil
	}
	for _, st := range settingsTable {
		if _, ok := s.configStore.Get(st.key); ok {
			st.load(&settings, s.configStore)
		}
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("load settings from %s: %w", s.configStore.Path(), err)
	}
	return &settings, nil
}

// Set parses, validates and persists one setting.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if s.configStore == nil {
		return fmt.Errorf("set %s: no config store", key)
	}

	current, err := s.Get()
	if err != nil {
		return err
	}
	parsed, err := st.apply(current, strings.TrimSpace(value))
	if err != nil {
		return err
	}
	if err := current.Validate(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Keys lists every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, st := range settingsTable {
		keys[i] = st.key
	}
	sort.Strings(keys)
	return keys
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}
