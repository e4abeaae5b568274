// Package config handles GlassDesk configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Providers
	Google GoogleConfig `json:"google"`
	Zoom   ProviderConfig `json:"zoom"`
	Asana  ProviderConfig `json:"asana"`

	// Services
	Qdrant QdrantConfig `json:"qdrant"`
	Ollama OllamaConfig `json:"ollama"`
	Claude ClaudeConfig `json:"claude"`

	// Auth
	Auth AuthConfig `json:"auth"`

	// Query pipeline limits
	Query QueryConfig `json:"query"`

	// Features
	Features FeatureConfig `json:"features"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// GoogleConfig for the Gmail OAuth app
type GoogleConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
}

// ProviderConfig for Zoom and Asana OAuth apps
type ProviderConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
	BaseURL      string `json:"base_url"` // API base, overridable for tests
}

// QdrantConfig for vector database
type QdrantConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// OllamaConfig for local LLM and embeddings
type OllamaConfig struct {
	URL   string `json:"url"`
	Model string `json:"model"`
}

// ClaudeConfig for Claude API
type ClaudeConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// AuthConfig for sessions and the token vault
type AuthConfig struct {
	JWTSecret     string        `json:"jwt_secret"`
	SessionExpiry time.Duration `json:"session_expiry"`
}

// QueryConfig bounds the context window handed to the LLM
type QueryConfig struct {
	MaxContextItems int `json:"max_context_items"`
	MaxContextChars int `json:"max_context_chars"`
}

// FeatureConfig for feature flags
type FeatureConfig struct {
	EnableSync      bool `json:"enable_sync"`
	EnableSemantic  bool `json:"enable_semantic"`
	EnableScheduler bool `json:"enable_scheduler"`
	DebugMode       bool `json:"debug_mode"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".glassdesk"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  "http://localhost:8080/api/v1/auth/google/callback",
		},
		Zoom: ProviderConfig{
			ClientID:     os.Getenv("ZOOM_CLIENT_ID"),
			ClientSecret: os.Getenv("ZOOM_CLIENT_SECRET"),
			RedirectURL:  "http://localhost:8080/api/v1/auth/zoom/callback",
			BaseURL:      "https://api.zoom.us/v2",
		},
		Asana: ProviderConfig{
			ClientID:     os.Getenv("ASANA_CLIENT_ID"),
			ClientSecret: os.Getenv("ASANA_CLIENT_SECRET"),
			RedirectURL:  "http://localhost:8080/api/v1/auth/asana/callback",
			BaseURL:      "https://app.asana.com/api/1.0",
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Ollama: OllamaConfig{
			URL:   "http://localhost:11434",
			Model: "llama3.2",
		},
		Claude: ClaudeConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:  "claude-sonnet-4-20250514",
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("GLASSDESK_JWT_SECRET"),
			SessionExpiry: 24 * time.Hour,
		},
		Query: QueryConfig{
			MaxContextItems: 20,
			MaxContextChars: 8000,
		},
		Features: FeatureConfig{
			EnableSync:      true,
			EnableSemantic:  true,
			EnableScheduler: true,
			DebugMode:       false,
		},
	}
}

// Load loads config from file, falling back to defaults. A .env file in
// the working directory is applied to the environment first so provider
// credentials can live outside the config file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Secrets from env always win over the file
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.Claude.APIKey = apiKey
	}
	if secret := os.Getenv("GLASSDESK_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	return cfg, nil
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	// Keep secrets out of the file
	safeCfg := *c
	safeCfg.Claude.APIKey = ""
	safeCfg.Auth.JWTSecret = ""
	safeCfg.Google.ClientSecret = ""
	safeCfg.Zoom.ClientSecret = ""
	safeCfg.Asana.ClientSecret = ""

	data, err := json.MarshalIndent(safeCfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
