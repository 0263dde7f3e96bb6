package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/adyen/shopcheck/internal/retry"
	"github.com/spf13/cast"
)

// QAConfig holds the settings shared by the API client, crawler and e2e suite
type QAConfig struct {
	BaseURL          string
	MaxPageLimit     int
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RequestTimeout   time.Duration
	CrawlRPS         float64
	CrawlConcurrency int
	Headless         bool
	LogLevel         string
}

// LoadQAConfig loads QA configuration from environment variables
func LoadQAConfig(getenv func(string) string) (*QAConfig, error) {
	config := &QAConfig{
		BaseURL:          strings.TrimRight(strings.TrimSpace(getenv("SHOPCHECK_BASE_URL")), "/"),
		MaxPageLimit:     100,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   200 * time.Millisecond,
		RequestTimeout:   10 * time.Second,
		CrawlRPS:         5,
		CrawlConcurrency: 4,
		Headless:         true,
		LogLevel:         "info",
	}

	// Validate required fields
	if config.BaseURL == "" {
		return nil, fmt.Errorf("SHOPCHECK_BASE_URL is required")
	}
	if u, err := url.Parse(config.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("SHOPCHECK_BASE_URL must be an absolute URL, got %q", config.BaseURL)
	}

	var err error
	if config.MaxPageLimit, err = intOr(getenv, "SHOPCHECK_MAX_PAGE_LIMIT", config.MaxPageLimit); err != nil {
		return nil, err
	}
	if config.RetryMaxAttempts, err = intOr(getenv, "SHOPCHECK_RETRY_MAX_ATTEMPTS", config.RetryMaxAttempts); err != nil {
		return nil, err
	}
	if config.RetryBaseDelay, err = durationOr(getenv, "SHOPCHECK_RETRY_BASE_DELAY", config.RetryBaseDelay); err != nil {
		return nil, err
	}
	if config.RequestTimeout, err = durationOr(getenv, "SHOPCHECK_REQUEST_TIMEOUT", config.RequestTimeout); err != nil {
		return nil, err
	}
	if config.CrawlConcurrency, err = intOr(getenv, "SHOPCHECK_CRAWL_CONCURRENCY", config.CrawlConcurrency); err != nil {
		return nil, err
	}
	if v := getenv("SHOPCHECK_CRAWL_RPS"); v != "" {
		if config.CrawlRPS, err = cast.ToFloat64E(v); err != nil {
			return nil, fmt.Errorf("SHOPCHECK_CRAWL_RPS must be a number: %w", err)
		}
	}
	if v := getenv("SHOPCHECK_HEADLESS"); v != "" {
		if config.Headless, err = cast.ToBoolE(v); err != nil {
			return nil, fmt.Errorf("SHOPCHECK_HEADLESS must be a boolean: %w", err)
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}

	if config.MaxPageLimit < 1 {
		return nil, fmt.Errorf("SHOPCHECK_MAX_PAGE_LIMIT must be at least 1")
	}
	if config.CrawlConcurrency < 1 {
		return nil, fmt.Errorf("SHOPCHECK_CRAWL_CONCURRENCY must be at least 1")
	}
	if err := config.RetryPolicy().Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry settings: %w", err)
	}

	return config, nil
}

// RetryPolicy returns the retry policy described by the configuration
func (c *QAConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   c.RetryBaseDelay,
	}
}

func intOr(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func durationOr(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
