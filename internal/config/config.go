package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"godoor/domain/door"
	"godoor/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	UI       UIConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
	Data     DataConfig
	LogLevel string
}

// ServerConfig holds JSON API settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// UIConfig holds report browser settings
type UIConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. An empty URL selects the
// in-memory analysis store; an empty MigrationsPath the embedded migrations.
type DatabaseConfig struct {
	URL            string
	MaxOpenConns   int
	MigrationsPath string
}

// AnalysisConfig bounds and tunes the comparator
type AnalysisConfig struct {
	MaxPairs           int64
	FastTallyThreshold int64
	Workers            int
	Alpha              float64
}

// DataConfig names the input files and the columns read from them
type DataConfig struct {
	InputFile     string
	HierarchyFile string
	Sheet         string // empty reads the first sheet
	PatientColumn string
	ArmColumn     string
	OutcomeColumn string
	TreatmentArm  string
	ControlArm    string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		UI: UIConfig{
			Port: getEnvOrDefault("UI_PORT", "8081"),
		},
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			MaxOpenConns:   getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
			MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", ""),
		},
		Analysis: AnalysisConfig{
			MaxPairs:           getEnvInt64OrDefault("DOOR_MAX_PAIRS", 0),
			FastTallyThreshold: getEnvInt64OrDefault("DOOR_FAST_TALLY_THRESHOLD", door.DefaultFastTallyThreshold),
			Workers:            getEnvIntOrDefault("DOOR_WORKERS", runtime.NumCPU()),
			Alpha:              getEnvFloatOrDefault("DOOR_ALPHA", 0.05),
		},
		Data: DataConfig{
			InputFile:     getEnvOrDefault("DOOR_INPUT_FILE", ""),
			HierarchyFile: getEnvOrDefault("DOOR_HIERARCHY_FILE", ""),
			Sheet:         getEnvOrDefault("DOOR_SHEET", ""),
			PatientColumn: getEnvOrDefault("DOOR_PATIENT_COLUMN", "patient_id"),
			ArmColumn:     getEnvOrDefault("DOOR_ARM_COLUMN", "treatment"),
			OutcomeColumn: getEnvOrDefault("DOOR_OUTCOME_COLUMN", "outcome"),
			TreatmentArm:  getEnvOrDefault("DOOR_TREATMENT_ARM", ""),
			ControlArm:    getEnvOrDefault("DOOR_CONTROL_ARM", ""),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("DOOR_ALPHA must be in (0, 1)")
	}
	if config.Analysis.MaxPairs < 0 {
		return errors.ConfigInvalid("DOOR_MAX_PAIRS must not be negative")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("DOOR_WORKERS must be at least 1")
	}
	if config.Data.ArmColumn == "" || config.Data.OutcomeColumn == "" {
		return errors.ConfigInvalid("arm and outcome column names are required")
	}
	if config.Data.TreatmentArm != "" && config.Data.TreatmentArm == config.Data.ControlArm {
		return errors.ConfigInvalid("DOOR_TREATMENT_ARM and DOOR_CONTROL_ARM must differ")
	}
	if config.Server.GinMode != "debug" && config.Server.GinMode != "release" && config.Server.GinMode != "test" {
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	return nil
}

// ComparatorOptions turns the analysis settings into comparator options.
func (c AnalysisConfig) ComparatorOptions() []door.ComparatorOption {
	return []door.ComparatorOption{
		door.WithMaxPairs(c.MaxPairs),
		door.WithFastTallyThreshold(c.FastTallyThreshold),
		door.WithParallelism(c.Workers),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.ReplaceAll(value, "_", ""), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
