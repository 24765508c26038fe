package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTickHz is the fixed simulation cadence when LAF_TICK_HZ is unset.
	DefaultTickHz = 20.0
	// DefaultDogRetirementTime is the idle threshold before a player is retired.
	DefaultDogRetirementTime = 60 * time.Second
	// DefaultRandomizeSpawn controls whether join spawns on a random road point.
	DefaultRandomizeSpawn = false

	// DefaultLogLevel controls verbosity for server logs.
	DefaultLogLevel = "info"
	// DefaultLogPath is where structured logs are written.
	DefaultLogPath = "lostandfound.log"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true

	// DefaultRecordsPath is the on-disk SQLite database backing the records sink.
	DefaultRecordsPath = "records.db"
	// DefaultRecordsPoolSize bounds the number of concurrent sink connections.
	DefaultRecordsPoolSize = 4
	// DefaultRetiredRetryLimit bounds the in-memory retry queue for sink failures.
	DefaultRetiredRetryLimit = 64
)

// Config captures all runtime tunables for the simulation/session core.
type Config struct {
	WorldConfigPath   string
	TickHz            float64
	DogRetirementTime time.Duration
	// DogRetirementTimeSet reports whether LAF_DOG_RETIREMENT_SECONDS was
	// explicitly provided, so callers can distinguish "use the default" from
	// "override whatever the world configuration file says".
	DogRetirementTimeSet  bool
	RandomizeSpawn        bool
	Logging               LoggingConfig
	RecordsPath           string
	RecordsPoolSize       int
	RetiredRecordRetryCap int
}

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads the server configuration from environment variables, applying sane defaults
// and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	cfg := &Config{
		WorldConfigPath:   strings.TrimSpace(os.Getenv("LAF_WORLD_CONFIG")),
		TickHz:            DefaultTickHz,
		DogRetirementTime: DefaultDogRetirementTime,
		RandomizeSpawn:    DefaultRandomizeSpawn,
		Logging: LoggingConfig{
			Level:      strings.TrimSpace(getString("LAF_LOG_LEVEL", DefaultLogLevel)),
			Path:       strings.TrimSpace(getString("LAF_LOG_PATH", DefaultLogPath)),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
		RecordsPath:           strings.TrimSpace(getString("LAF_RECORDS_PATH", DefaultRecordsPath)),
		RecordsPoolSize:       DefaultRecordsPoolSize,
		RetiredRecordRetryCap: DefaultRetiredRetryLimit,
	}

	var problems []string

	if cfg.WorldConfigPath == "" {
		problems = append(problems, "LAF_WORLD_CONFIG must name the world configuration file")
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_TICK_HZ")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("LAF_TICK_HZ must be a positive number, got %q", raw))
		} else {
			cfg.TickHz = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_DOG_RETIREMENT_SECONDS")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("LAF_DOG_RETIREMENT_SECONDS must be a positive number, got %q", raw))
		} else {
			cfg.DogRetirementTime = time.Duration(value * float64(time.Second))
			cfg.DogRetirementTimeSet = true
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_RANDOMIZE_SPAWN")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("LAF_RANDOMIZE_SPAWN must be a boolean value, got %q", raw))
		} else {
			cfg.RandomizeSpawn = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("LAF_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("LAF_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_LOG_MAX_AGE_DAYS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("LAF_LOG_MAX_AGE_DAYS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxAgeDays = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("LAF_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_RECORDS_POOL_SIZE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("LAF_RECORDS_POOL_SIZE must be a positive integer, got %q", raw))
		} else {
			cfg.RecordsPoolSize = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LAF_RETIRED_RETRY_CAP")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("LAF_RETIRED_RETRY_CAP must be a non-negative integer, got %q", raw))
		} else {
			cfg.RetiredRecordRetryCap = value
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf(strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
