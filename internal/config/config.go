// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Defaults mirrored by the deployed app.
const (
	DefaultChatDir      = "./chat_history"
	DefaultModel        = "gpt-3.5-turbo"
	DefaultTemperature  = 0.7
	DefaultSystemPrompt = "You are a helpful Databricks AI assistant. You have access to tools that can help you provide more accurate and up-to-date information."
	DefaultSecretScope  = "chatbot-secrets"
	DefaultSecretKey    = "OPENAI_API_KEY"
	DefaultCLI          = "databricks"
)

type Config struct {
	Environment string

	ChatDir    string
	Store      string
	SQLitePath string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	Temperature   float32
	SystemPrompt  string

	SecretScope   string
	SecretKey     string
	DatabricksCLI string
}

// Load reads configuration from environment variables or .env file.
// The .env file is ignored when ENV=production.
func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Environment:   get("ENV", ""),
		ChatDir:       get("CHAT_HISTORY_DIR", DefaultChatDir),
		Store:         strings.ToLower(get("CHAT_STORE", StoreFile)),
		OpenAIAPIKey:  get("OPENAI_API_KEY", ""),
		OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
		Model:         get("OPENAI_MODEL", DefaultModel),
		SystemPrompt:  get("SYSTEM_PROMPT", DefaultSystemPrompt),
		SecretScope:   get("CHATBOT_SECRET_SCOPE", DefaultSecretScope),
		SecretKey:     get("CHATBOT_SECRET_KEY", DefaultSecretKey),
		DatabricksCLI: get("DATABRICKS_CLI", DefaultCLI),
	}
	cfg.SQLitePath = get("CHAT_SQLITE_PATH", SQLitePathFor(cfg.ChatDir))

	temp := get("OPENAI_TEMPERATURE", "")
	if temp == "" {
		cfg.Temperature = DefaultTemperature
	} else {
		v, err := strconv.ParseFloat(temp, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid OPENAI_TEMPERATURE %q: %w", temp, err)
		}
		cfg.Temperature = float32(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SQLitePathFor is the default database location inside a chat directory
func SQLitePathFor(chatDir string) string {
	return filepath.Join(chatDir, "chats.db")
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %v", c.Temperature)
	}
	switch c.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unsupported chat store %q (supported: file, sqlite)", c.Store)
	}
	if c.ChatDir == "" {
		return fmt.Errorf("chat directory must not be empty")
	}
	return nil
}
