package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new Manager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update replaces the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.config
	m.config = config

	if old != nil {
		slog.Debug("Configuration updated",
			"database_changed", old.Database != config.Database,
			"issuer_changed", old.Auth.IssuerURL != config.Auth.IssuerURL,
			"watch_changed", old.Watch != config.Watch,
			"logger_changed", old.Logger != config.Logger,
		)
	}
}

// Save writes the current configuration to the specified file path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create config file", "path", path, "error", err)
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(m.config); err != nil {
		slog.Error("failed to encode config", "path", path, "error", err)
		return err
	}

	slog.Info("Configuration saved successfully", "path", path)
	return nil
}

// EnsureDirectories creates the database directory and, when enabled, the watch folder.
func (m *Manager) EnsureDirectories() error {
	cfg := m.Get()

	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}
	if cfg.Watch.Enabled {
		if err := os.MkdirAll(cfg.Watch.Path, 0755); err != nil {
			return fmt.Errorf("failed to create watch directory %s: %w", cfg.Watch.Path, err)
		}
	}

	slog.Debug("Required directories created/verified", "database", dbDir, "watch", cfg.Watch.Path)
	return nil
}

// redactedCfg returns a copy of the config without personal data.
func (m *Manager) redactedCfg() Config {
	cpy := *m.Get()
	if cpy.Watch.OwnerEmail != "" {
		cpy.Watch.OwnerEmail = redacted
	}
	if cpy.Watch.OwnerID != "" {
		cpy.Watch.OwnerID = redacted
	}
	cpy.Server.AllowedOrigins = append([]string(nil), cpy.Server.AllowedOrigins...)
	return cpy
}

// GetJSON returns the current configuration as a JSON string.
func (m *Manager) GetJSON() string {
	jsonBytes, err := json.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return string(jsonBytes)
}

// GetYAML returns the current configuration as a YAML string.
func (m *Manager) GetYAML() string {
	yamlBytes, err := yaml.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to YAML", "error", err)
		return err.Error()
	}
	return string(yamlBytes)
}
