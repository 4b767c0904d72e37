package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the full Popcorn configuration, persisted as one JSON document.
type Settings struct {
	Server  ServerSettings  `json:"server"`
	Auth    AuthSettings    `json:"auth"`
	Data    DataSettings    `json:"data"`
	Search  SearchSettings  `json:"search"`
	TMDb    TMDbSettings    `json:"tmdb"`
	Posters PosterSettings  `json:"posters"`
	Logging LoggingSettings `json:"logging"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	CORSOrigin string `json:"corsOrigin"`
}

// AuthSettings selects and configures the credential provider.
// Mode is one of "cognito", "local", "memory".
type AuthSettings struct {
	Mode          string          `json:"mode"`
	Cognito       CognitoSettings `json:"cognito"`
	DatabasePath  string          `json:"databasePath"`
	TokenSecret   string          `json:"tokenSecret"`
	SecureCookies bool            `json:"secureCookies"`
	CookieDomain  string          `json:"cookieDomain,omitempty"`
}

// CognitoSettings holds the AWS Cognito user pool coordinates.
type CognitoSettings struct {
	Region       string `json:"region"`
	UserPoolID   string `json:"userPoolId"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// DataSettings locates the on-disk application data.
type DataSettings struct {
	Dir string `json:"dir"`
}

// SearchSettings locates the semantic-search index assets.
type SearchSettings struct {
	IndexDir string `json:"indexDir"`
}

// TMDbSettings configures the metadata client. An empty APIKey disables it.
type TMDbSettings struct {
	APIKey          string `json:"apiKey,omitempty"`
	CacheTTLMinutes int    `json:"cacheTtlMinutes"`
}

// PosterSettings configures the poster proxy.
type PosterSettings struct {
	AllowedHosts []string `json:"allowedHosts"`
	CacheDir     string   `json:"cacheDir"`
}

// LoggingSettings configures optional rotating-file logging. An empty File
// logs to stderr.
type LoggingSettings struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Debug      bool   `json:"debug"`
}

// DefaultSettings returns the configuration used when no settings file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Host:       "0.0.0.0",
			Port:       8080,
			CORSOrigin: "*",
		},
		Auth: AuthSettings{
			Mode:         "memory",
			DatabasePath: "data/users.db",
		},
		Data:   DataSettings{Dir: "data"},
		Search: SearchSettings{IndexDir: "data/index"},
		TMDb:   TMDbSettings{CacheTTLMinutes: 24 * 60},
		Posters: PosterSettings{
			AllowedHosts: []string{"image.tmdb.org"},
			CacheDir:     "data/posters",
		},
		Logging: LoggingSettings{
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Manager loads and saves the settings file. Saves are atomic (temp sibling
// plus rename) so a crash mid-save cannot leave a truncated settings file.
type Manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a settings manager for the given file path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the settings file, creating it with defaults when missing.
func (m *Manager) Load() (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			settings := DefaultSettings()
			if err := m.saveLocked(settings); err != nil {
				return nil, err
			}
			return settings, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", m.path, err)
	}
	return settings, nil
}

// Save persists the settings atomically.
func (m *Manager) Save(settings *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(settings)
}

func (m *Manager) saveLocked(settings *Settings) error {
	dir := filepath.Dir(m.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write settings temp file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
