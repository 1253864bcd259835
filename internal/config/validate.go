package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if !slices.Contains([]string{EnvDev, EnvStaging, EnvProd}, c.App.Environment) {
		return fmt.Errorf("app.environment must be one of dev, staging, prod (got %q)", c.App.Environment)
	}

	if err := c.WordPress.validate(); err != nil {
		return fmt.Errorf("wordpress: %w", err)
	}

	if c.Mapper.Lookback <= 0 {
		return fmt.Errorf("mapper.lookback must be > 0 (got %v)", c.Mapper.Lookback)
	}
	if strings.TrimSpace(c.Mapper.OutputPath) == "" {
		return fmt.Errorf("mapper.output_path is required")
	}

	if c.ImportAPI.Enabled() {
		if err := validateURL(c.ImportAPI.BaseURL); err != nil {
			return fmt.Errorf("import_api.base_url: %w", err)
		}
		if c.ImportAPI.Username == "" || c.ImportAPI.Password == "" {
			return fmt.Errorf("import_api.username and import_api.password are required when base_url is set")
		}
		if c.ImportAPI.CorpusImportID == "" {
			return fmt.Errorf("import_api.corpus_import_id is required when base_url is set")
		}
	}

	if c.Slack.WebhookURL != "" {
		if err := validateURL(c.Slack.WebhookURL); err != nil {
			return fmt.Errorf("slack.webhook_url: %w", err)
		}
	}

	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	return nil
}

func (w *WordPressConfig) validate() error {
	if err := validateURL(w.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	w.BaseURL = strings.TrimRight(w.BaseURL, "/")
	if w.PerPage <= 0 || w.PerPage > 100 {
		return fmt.Errorf("per_page must be in 1..100 (got %d)", w.PerPage)
	}
	if w.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", w.Timeout)
	}
	if w.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0 (got %d)", w.MaxRetries)
	}
	if w.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be > 0 (got %v)", w.RateLimit)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
