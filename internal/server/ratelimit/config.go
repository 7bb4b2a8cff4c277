package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig limits one route.
type EndpointConfig struct {
	Path   string        // Exact path, or a prefix when it ends with "/"
	Method string        // HTTP method
	Limit  int           // Requests per window; 0 means unlimited
	Window time.Duration // Refill window
	Burst  int           // Bucket capacity; defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int           // Applied to POST routes without their own entry
	DefaultWindow   time.Duration
	CleanupInterval time.Duration // How often idle buckets are evicted
	IdleTTL         time.Duration // Buckets unused this long are evicted
	Allowlist       map[string]bool
	Blocklist       map[string]bool
	Endpoints       []EndpointConfig
}

// DefaultConfig is used when no environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    60,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Allowlist:       map[string]bool{},
		Blocklist:       map[string]bool{},
		Endpoints:       DefaultEndpoints(),
	}
}

// DefaultEndpoints returns the per-route limits of the web UI.
func DefaultEndpoints() []EndpointConfig {
	return []EndpointConfig{
		// Each submission costs a full backend pipeline run
		{Path: "/submit", Method: "POST", Limit: 10, Window: time.Minute, Burst: 3},
		{Path: "/profile/pdf", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/sample", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/reset", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// LoadConfig reads RATE_LIMIT_* environment variables over DefaultConfig.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return cfg
	}

	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.IdleTTL = getEnvDuration("RATE_LIMIT_IDLE_TTL", cfg.IdleTTL)
	cfg.Allowlist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blocklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))

	if limit := getEnvInt("RATE_LIMIT_SUBMIT_LIMIT", 0); limit > 0 {
		for i := range cfg.Endpoints {
			if cfg.Endpoints[i].Path == "/submit" {
				cfg.Endpoints[i].Limit = limit
			}
		}
	}
	return cfg
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
