package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Supported LLM providers.
const (
	ProviderOpenAI   = "openai"
	ProviderGrok     = "grok"
	ProviderMoonshot = "moonshot"
	ProviderKimi     = "kimi"
	ProviderGemini   = "gemini"
)

var providers = []string{ProviderOpenAI, ProviderGrok, ProviderMoonshot, ProviderKimi, ProviderGemini}

var logFormats = []string{"text", "json", "logfmt"}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("database: min_conns %d > max_conns %d", c.Database.MinConns, c.Database.MaxConns))
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if !slices.Contains(providers, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout: must be positive"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm.max_tokens: must be positive"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature: %v out of range [0, 2]", c.LLM.Temperature))
	}

	if c.Slack.QueueSize <= 0 {
		errs = append(errs, errors.New("slack.queue_size: must be positive"))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
