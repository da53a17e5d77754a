package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	AppName  string         `yaml:"app_name" env:"APP_NAME" env-default:"AI Judge API"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Slack    SlackConfig    `yaml:"slack"`
	CORS     CORSConfig     `yaml:"cors"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// BodyLimit is passed to echo's BodyLimit middleware (e.g. "32M").
	BodyLimit string `yaml:"body_limit" env:"SERVER_BODY_LIMIT" env-default:"32M"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `yaml:"url"                env:"DATABASE_URL"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	Migrate         bool          `yaml:"migrate"            env:"DB_MIGRATE"                  env-default:"true"`
}

// LLMConfig selects and tunes the completion backend.
type LLMConfig struct {
	Provider     string        `yaml:"provider"       env:"LLM_PROVIDER"           env-default:"openai"`
	APIKey       string        `yaml:"api_key"        env:"OPENAI_API_KEY"`
	GeminiAPIKey string        `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string        `yaml:"model"          env:"OPENAI_MODEL"`
	BaseURL      string        `yaml:"base_url"       env:"OPENAI_BASE_URL"`
	Timeout      time.Duration `yaml:"timeout"        env:"OPENAI_TIMEOUT"         env-default:"30s"`
	Temperature  float64       `yaml:"temperature"    env:"OPENAI_TEMPERATURE"     env-default:"0.2"`
	MaxTokens    int64         `yaml:"max_tokens"     env:"OPENAI_MAX_TOKENS"      env-default:"700"`
	CountTokens  bool          `yaml:"count_tokens"   env:"LLM_COUNT_TOKENS"       env-default:"false"`
}

// Credential returns the API key for the configured provider.
// An empty string means no backend is configured.
func (c LLMConfig) Credential() string {
	if strings.EqualFold(c.Provider, ProviderGemini) {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// SlackConfig holds the optional request notification settings.
type SlackConfig struct {
	Token     string `yaml:"token"      env:"SLACK_TOKEN"`
	Channel   string `yaml:"channel"    env:"SLACK_CHANNEL"`
	QueueSize int    `yaml:"queue_size" env:"SLACK_QUEUE_SIZE" env-default:"100"`
}

// Enabled reports whether notifications should be sent at all.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.Channel != ""
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowOrigins     string `yaml:"allow_origins"     env:"CORS_ALLOW_ORIGINS"     env-default:"*"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
}

// Origins splits AllowOrigins on commas.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
