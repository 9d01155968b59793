// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for memoir configuration.
	DefaultConfigDir = ".memoir"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Matching MatchingConfig `yaml:"matching,omitempty"`
}

// LLMConfig holds configuration for the mention-extraction LLM provider.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// Enabled turns on profile-index candidate recall.
	Enabled bool `yaml:"enabled,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant profile index.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite entity store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// For per-user databases, this is computed via SQLitePathForUser.
	Path string `yaml:"path,omitempty"`
}

// MatchingConfig holds the tunable matcher thresholds. These are the knobs
// of the resolution engine, not hard-coded magic numbers.
type MatchingConfig struct {
	LexicalWeight      float64 `yaml:"lexical_weight,omitempty"`
	ContextWeight      float64 `yaml:"context_weight,omitempty"`
	MinConfidence      float64 `yaml:"min_confidence,omitempty"`
	NewEntityThreshold float64 `yaml:"new_entity_threshold,omitempty"`
	MaxMatches         int     `yaml:"max_matches,omitempty"`
	MinFuzzyLength     int     `yaml:"min_fuzzy_length,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Matching: MatchingConfig{
			LexicalWeight:      0.7,
			ContextWeight:      0.3,
			MinConfidence:      0.25,
			NewEntityThreshold: 0.5,
			MaxMatches:         5,
			MinFuzzyLength:     2,
		},
	}
}

// Load loads configuration from the .memoir directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'memoir init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration file, creating the config directory.
func (c *Config) Save(basePath string) error {
	dir := ConfigDir(basePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
}

// ConfigDir returns the path to the .memoir config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a memoir config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeUserID converts a user id to a valid directory/collection suffix.
func SanitizeUserID(userID string) string {
	userID = strings.ToLower(userID)
	userID = strings.ReplaceAll(userID, " ", "_")
	userID = strings.ReplaceAll(userID, "-", "_")
	userID = reNonAlphanumeric.ReplaceAllString(userID, "")
	userID = reMultipleUnderscores.ReplaceAllString(userID, "_")
	userID = strings.Trim(userID, "_")
	if userID == "" {
		return "default"
	}
	return userID
}

// GenerateCollectionName creates a profile-index collection name for a user.
func GenerateCollectionName(userID string) string {
	return "memoir_" + SanitizeUserID(userID)
}

// SQLitePathForUser returns the SQLite database path for a given user.
func SQLitePathForUser(basePath, userID string) string {
	return filepath.Join(basePath, DefaultConfigDir, "users", SanitizeUserID(userID), "memoir.db")
}

// UserDir returns the data directory path for a given user.
func UserDir(basePath, userID string) string {
	return filepath.Join(basePath, DefaultConfigDir, "users", SanitizeUserID(userID))
}
