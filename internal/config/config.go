package config

import (
	"os"
	"strconv"

	"ratelab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Fit      FitConfig
	Database DatabaseConfig
}

// ServerConfig holds dashboard server settings
type ServerConfig struct {
	Port    string
	GinMode string
	APIPort string
}

// DataConfig holds input/output locations for the pipeline
type DataConfig struct {
	FrequencyFile string
	SeverityFile  string
	PolicyFile    string
	OutputDir     string
	ScoredFile    string
}

// FitConfig holds model-fitting settings
type FitConfig struct {
	Seed          int64
	TrainFraction float64
	PowerGridFrom float64
	PowerGridTo   float64
	PowerGridStep float64
	ProfileSample int
	BoostRounds   int
	MaxDepth      int
	LearningRate  float64
	RegLambda     float64
}

// DatabaseConfig holds the optional score-store settings.
// The store is enabled only when URL is non-empty.
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
			APIPort: getEnvOrDefault("API_PORT", "8081"),
		},
		Data: DataConfig{
			FrequencyFile: getEnvOrDefault("FREQUENCY_FILE", "data/freq.csv"),
			SeverityFile:  getEnvOrDefault("SEVERITY_FILE", "data/sev.csv"),
			PolicyFile:    getEnvOrDefault("POLICY_FILE", "out/policies.csv"),
			OutputDir:     getEnvOrDefault("OUTPUT_DIR", "out"),
			ScoredFile:    getEnvOrDefault("SCORED_FILE", "out/scored_test.csv"),
		},
		Fit: FitConfig{
			Seed:          int64(getEnvIntOrDefault("SEED", 42)),
			TrainFraction: getEnvFloatOrDefault("TRAIN_FRACTION", 0.8),
			PowerGridFrom: getEnvFloatOrDefault("POWER_GRID_FROM", 1.1),
			PowerGridTo:   getEnvFloatOrDefault("POWER_GRID_TO", 1.9),
			PowerGridStep: getEnvFloatOrDefault("POWER_GRID_STEP", 0.1),
			ProfileSample: getEnvIntOrDefault("PROFILE_SAMPLE", 20000),
			BoostRounds:   getEnvIntOrDefault("BOOST_ROUNDS", 150),
			MaxDepth:      getEnvIntOrDefault("MAX_DEPTH", 4),
			LearningRate:  getEnvFloatOrDefault("LEARNING_RATE", 0.1),
			RegLambda:     getEnvFloatOrDefault("REG_LAMBDA", 1.0),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Fit.TrainFraction <= 0 || config.Fit.TrainFraction >= 1 {
		return errors.ConfigInvalid("TRAIN_FRACTION must be in (0,1)")
	}
	if config.Fit.PowerGridFrom <= 1 || config.Fit.PowerGridTo >= 2 {
		return errors.ConfigInvalid("power grid must lie strictly inside (1,2)")
	}
	if config.Fit.PowerGridStep <= 0 {
		return errors.ConfigInvalid("POWER_GRID_STEP must be positive")
	}
	if config.Fit.PowerGridFrom > config.Fit.PowerGridTo {
		return errors.ConfigInvalid("POWER_GRID_FROM must not exceed POWER_GRID_TO")
	}
	if config.Fit.BoostRounds < 1 {
		return errors.ConfigInvalid("BOOST_ROUNDS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
