// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	PostcodesBaseURL   string // empty selects the public postcodes.io API
	GeocodeCacheTTLHrs int    // how long resolved postcodes stay cached
	SweepIntervalHours int    // how often the alert sweep fires
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	sweepInterval := 1
	if s := os.Getenv("ALERT_SWEEP_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("ALERT_SWEEP_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		sweepInterval = v
	}

	geocodeTTL := 12
	if s := os.Getenv("GEOCODE_CACHE_TTL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("GEOCODE_CACHE_TTL_HOURS must be a positive integer, got %q", s)
		}
		geocodeTTL = v
	}

	port := os.Getenv("MATCHING_PORT")
	if port == "" {
		port = "8083"
	}

	return &Config{
		Port:               port,
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		PostcodesBaseURL:   os.Getenv("POSTCODES_BASE_URL"),
		GeocodeCacheTTLHrs: geocodeTTL,
		SweepIntervalHours: sweepInterval,
	}, nil
}
