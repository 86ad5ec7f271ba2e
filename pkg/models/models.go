// Package models manages the catalog of generation model presets offered to
// readers. The catalog lives in a models.toml file so operators can curate
// the list without code changes; a built-in fallback keeps the server usable
// when the file is missing or broken.
package models

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
)

// ModelConfig describes one curated model preset.
type ModelConfig struct {
	ID             string   `toml:"-" json:"id"`
	Name           string   `toml:"name" json:"name"`
	Provider       string   `toml:"provider" json:"provider"`
	ModelName      string   `toml:"model_name" json:"model_name"`
	Description    string   `toml:"description" json:"description"`
	ContentLevel   string   `toml:"content_level" json:"content_level"`
	Temperature    float64  `toml:"temperature" json:"temperature"`
	Tags           []string `toml:"tags" json:"tags"`
	PromptModifier string   `toml:"prompt_modifier,omitempty" json:"prompt_modifier,omitempty"`
}

// catalogFile is the TOML shape of models.toml: a default model ID plus a
// table of presets keyed by ID.
type catalogFile struct {
	DefaultModel string                 `toml:"default_model"`
	Models       map[string]ModelConfig `toml:"models"`
}

const fallbackModelID = "llama-balanced"

// Manager holds the loaded catalog and serves lookups.
type Manager struct {
	logger *slog.Logger
	path   string

	mu        sync.RWMutex
	models    map[string]ModelConfig
	defaultID string
}

// NewManager loads the catalog from the given models.toml path. A missing or
// unparseable file falls back to the built-in preset rather than failing.
func NewManager(path string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger: logger,
		path:   path,
	}
	m.load()

	return m
}

// Refresh reloads the catalog from disk.
func (m *Manager) Refresh() {
	m.load()
}

// All returns every model in the catalog.
func (m *Manager) All() []ModelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]ModelConfig, 0, len(m.models))
	for _, model := range m.models {
		all = append(all, model)
	}

	slices.SortFunc(all, func(a, b ModelConfig) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return all
}

// Get returns the model with the given ID.
func (m *Manager) Get(id string) (ModelConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model, ok := m.models[id]
	return model, ok
}

// Filter returns models matching the given content level (empty matches all)
// and carrying at least one of the given tags (empty matches all).
func (m *Manager) Filter(contentLevel string, tags []string) []ModelConfig {
	var filtered []ModelConfig
	for _, model := range m.All() {
		if contentLevel != "" && model.ContentLevel != contentLevel {
			continue
		}

		if len(tags) > 0 {
			match := false
			for _, tag := range tags {
				if slices.Contains(model.Tags, tag) {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}

		filtered = append(filtered, model)
	}

	return filtered
}

// Default returns the configured default model, falling back to any model in
// the catalog when the configured ID is missing.
func (m *Manager) Default() ModelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if model, ok := m.models[m.defaultID]; ok {
		return model
	}

	for _, model := range m.models {
		return model
	}

	// Unreachable: load always leaves at least the fallback preset.
	return ModelConfig{}
}

// load reads the catalog file, installing the fallback on any failure.
func (m *Manager) load() {
	catalog, err := parseCatalog(m.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("could not load models catalog, using fallback", "path", m.path, "error", err)
		}
		catalog = fallbackCatalog()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = catalog.Models
	m.defaultID = catalog.DefaultModel
}

// parseCatalog reads and validates a models.toml file.
func parseCatalog(path string) (*catalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	catalog := &catalogFile{}
	if err := toml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("parsing models catalog: %w", err)
	}

	if len(catalog.Models) == 0 {
		return nil, errors.New("models catalog defines no models")
	}

	// The table key is authoritative for the ID.
	for id, model := range catalog.Models {
		model.ID = id
		if model.Tags == nil {
			model.Tags = []string{}
		}
		catalog.Models[id] = model
	}

	if catalog.DefaultModel == "" {
		catalog.DefaultModel = fallbackModelID
	}

	return catalog, nil
}

// fallbackCatalog is the built-in single-preset catalog.
func fallbackCatalog() *catalogFile {
	return &catalogFile{
		DefaultModel: fallbackModelID,
		Models: map[string]ModelConfig{
			fallbackModelID: {
				ID:           fallbackModelID,
				Name:         "Llama Balanced",
				Provider:     "ollama",
				ModelName:    "llama3.2",
				Description:  "Balanced creativity with moderate content flexibility",
				ContentLevel: "mild",
				Temperature:  0.8,
				Tags:         []string{"balanced", "creative", "versatile"},
			},
		},
	}
}
