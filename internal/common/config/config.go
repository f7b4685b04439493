// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Server     ServerConfig            `mapstructure:"server"`
	Cache      RedisConfig             `mapstructure:"cache"`
	Tiers      TiersConfig             `mapstructure:"tiers"`
	OCR        OCRConfig               `mapstructure:"ocr"`
	Scrape     ScrapeConfig            `mapstructure:"scrape"`
	Sources    map[string]SourceConfig `mapstructure:"sources"`
	Confidence ConfidenceConfig        `mapstructure:"confidence"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsDevelopment resolves the execution context once at startup. Components
// receive the answer as an explicit constructor argument; business logic
// never reads the process environment directly.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxImageBytes   int64  `mapstructure:"max_image_bytes"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // milliseconds
	Enabled  bool   `mapstructure:"enabled"`
}

// TiersConfig holds settings for the fallback execution tiers.
type TiersConfig struct {
	Remote struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"remote"`

	Local struct {
		BaseURL string `mapstructure:"base_url"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"local"`
}

// OCRConfig holds settings for the image recognition backend.
type OCRConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// ScrapeConfig holds browser-session settings shared by all jurisdictions.
type ScrapeConfig struct {
	Headless          bool `mapstructure:"headless"`
	NavigationTimeout int  `mapstructure:"navigation_timeout"` // milliseconds
	FormTimeout       int  `mapstructure:"form_timeout"`       // milliseconds
	ResultsGrace      int  `mapstructure:"results_grace"`      // milliseconds
	MaxConcurrent     int  `mapstructure:"max_concurrent"`
}

// SourceConfig describes one jurisdiction's portal. The shared scraper state
// machine consumes these records; there is no per-jurisdiction code.
type SourceConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	BaseURL          string `mapstructure:"base_url"`
	LicenseSelector  string `mapstructure:"license_selector"`
	DOBSelector      string `mapstructure:"dob_selector"`
	SubmitSelector   string `mapstructure:"submit_selector"`
	ResultsSelector  string `mapstructure:"results_selector"`
	RequiresDOB      bool   `mapstructure:"requires_dob"`
	State            string `mapstructure:"state"`
}

// ConfidenceConfig holds the extraction-confidence priors. These are
// configurable estimates pending calibration against real outcomes, not
// measured truths.
type ConfidenceConfig struct {
	RemoteStructured float64 `mapstructure:"remote_structured"`
	ScrapedText      float64 `mapstructure:"scraped_text"`
	OCRBase          float64 `mapstructure:"ocr_base"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetRedisAddr returns the cache address for client construction.
func (r RedisConfig) GetRedisAddr() string {
	if r.Address == "" {
		return "localhost:6379"
	}
	return r.Address
}

// Validate checks a source record for the fields the scraper cannot run
// without.
func (s SourceConfig) Validate(name string) error {
	if s.BaseURL == "" {
		return fmt.Errorf("sources.%s.base_url is required", name)
	}
	if s.LicenseSelector == "" {
		return fmt.Errorf("sources.%s.license_selector is required", name)
	}
	if s.SubmitSelector == "" {
		return fmt.Errorf("sources.%s.submit_selector is required", name)
	}
	if s.RequiresDOB && s.DOBSelector == "" {
		return fmt.Errorf("sources.%s.dob_selector is required when requires_dob is set", name)
	}
	return nil
}
