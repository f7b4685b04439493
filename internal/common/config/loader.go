// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like OCR_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the most plausible locations, falling back to
// the process environment when none exists.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the environment when the YAML left
// them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.OCR.APIKey == "" {
		if val := os.Getenv("OCR_API_KEY"); val != "" {
			cfg.OCR.APIKey = val
		}
	}
	if cfg.Tiers.Remote.APIKey == "" {
		if val := os.Getenv("REMOTE_TIER_API_KEY"); val != "" {
			cfg.Tiers.Remote.APIKey = val
		}
	}
	if cfg.Cache.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Cache.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.MaxImageBytes == 0 {
		cfg.Server.MaxImageBytes = 10 << 20
	}

	// Cache defaults
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 600000
	}

	// Tier timeout defaults
	if cfg.Tiers.Remote.Timeout == 0 {
		cfg.Tiers.Remote.Timeout = 20000
	}
	if cfg.Tiers.Local.Timeout == 0 {
		cfg.Tiers.Local.Timeout = 45000
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = 30000
	}

	// Browser defaults. Portals are slow; the grace period for the results
	// container is deliberately short because absence is not a failure.
	if cfg.Scrape.NavigationTimeout == 0 {
		cfg.Scrape.NavigationTimeout = 30000
	}
	if cfg.Scrape.FormTimeout == 0 {
		cfg.Scrape.FormTimeout = 15000
	}
	if cfg.Scrape.ResultsGrace == 0 {
		cfg.Scrape.ResultsGrace = 8000
	}
	if cfg.Scrape.MaxConcurrent == 0 {
		cfg.Scrape.MaxConcurrent = 4
	}

	// Confidence priors. Configurable pending calibration.
	if cfg.Confidence.RemoteStructured == 0 {
		cfg.Confidence.RemoteStructured = 0.95
	}
	if cfg.Confidence.ScrapedText == 0 {
		cfg.Confidence.ScrapedText = 0.70
	}
	if cfg.Confidence.OCRBase == 0 {
		cfg.Confidence.OCRBase = 0.60
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Source defaults
	for key, source := range cfg.Sources {
		if source.State == "" {
			source.State = "TX"
		}
		cfg.Sources[key] = source
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	for name, source := range cfg.Sources {
		if !source.Enabled {
			continue
		}
		if err := source.Validate(name); err != nil {
			return err
		}
	}

	if cfg.Confidence.RemoteStructured < 0 || cfg.Confidence.RemoteStructured > 1 ||
		cfg.Confidence.ScrapedText < 0 || cfg.Confidence.ScrapedText > 1 ||
		cfg.Confidence.OCRBase < 0 || cfg.Confidence.OCRBase > 1 {
		return fmt.Errorf("confidence priors must be within [0,1]")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetSourceConfig retrieves a jurisdiction's portal configuration.
func GetSourceConfig(cfg *Config, source string) (SourceConfig, bool) {
	sc, exists := cfg.Sources[source]
	return sc, exists
}

// IsSourceEnabled checks if a specific jurisdiction is enabled
func IsSourceEnabled(cfg *Config, source string) bool {
	if sc, exists := cfg.Sources[source]; exists {
		return sc.Enabled
	}
	return false
}
