package config

import "strings"

// ServerConfig holds settings for the mock storefront server
type ServerConfig struct {
	Port         string
	FailFirst    int
	MaxPageLimit int
	// PublicURL is the base URL advertised in the sitemap. Empty means the
	// request's own host.
	PublicURL string
}

// LoadServerConfig loads mock server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := getenv("PORT")
	if port == "" {
		port = "8080" // Default to port 8080
	}

	failFirst, _ := intOr(getenv, "MOCK_FAIL_FIRST", 0)
	if failFirst < 0 {
		failFirst = 0
	}

	maxPageLimit, err := intOr(getenv, "SHOPCHECK_MAX_PAGE_LIMIT", 100)
	if err != nil || maxPageLimit < 1 {
		maxPageLimit = 100
	}

	return ServerConfig{
		Port:         port,
		FailFirst:    failFirst,
		MaxPageLimit: maxPageLimit,
		PublicURL:    strings.TrimRight(getenv("MOCK_PUBLIC_URL"), "/"),
	}
}
