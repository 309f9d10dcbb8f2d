package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level kris.yaml configuration.
type Config struct {
	Organization OrganizationConfig `yaml:"organization"`
	Fiscal       FiscalConfig       `yaml:"fiscal"`
	Storage      StorageConfig      `yaml:"storage"`
	Report       ReportConfig       `yaml:"report"`
	Display      DisplayConfig      `yaml:"display"`
	Log          LogConfig          `yaml:"log"`
}

// OrganizationConfig identifies the single bookkeeping entity.
type OrganizationConfig struct {
	Name         string `yaml:"name"`
	CurrencyNote string `yaml:"currency_note,omitempty"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// StorageConfig selects the table backend.
type StorageConfig struct {
	Driver          string `yaml:"driver"` // pgx, postgres, mysql or memory
	DSN             string `yaml:"dsn,omitempty"`
	MaxConns        int32  `yaml:"max_conns,omitempty"`
	ReadConcurrency int    `yaml:"read_concurrency"`
}

// ReportConfig holds the category vocabulary used to lay out the statements.
type ReportConfig struct {
	Categories Categories `yaml:"categories"`
}

// Categories maps statement sections to account categories.
type Categories struct {
	Assets               []string `yaml:"assets"`
	Liabilities          []string `yaml:"liabilities"`
	COGS                 string   `yaml:"cogs"`
	OperatingExpenses    []string `yaml:"operating_expenses"`
	NonOperatingExpenses string   `yaml:"non_operating_expenses"`
}

// DisplayConfig controls how amounts are printed.
type DisplayConfig struct {
	Locale string `yaml:"locale"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Environment variables that override the file.
const (
	EnvDatabaseURL   = "KRIS_DATABASE_URL"
	EnvStorageDriver = "KRIS_STORAGE_DRIVER"
	EnvLogLevel      = "KRIS_LOG_LEVEL"
)

// Load reads a kris.yaml file from disk. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads path (falling back to defaults when it does not exist), then
// applies the optional .env file at envPath and the KRIS_* environment variables.
func LoadWithEnv(path, envPath string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(""), nil
	}
	if err != nil {
		return nil, err
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides storage and log settings from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvDatabaseURL)); v != "" {
		c.Storage.DSN = v
	}
	if v := strings.TrimSpace(getenv(EnvStorageDriver)); v != "" {
		c.Storage.Driver = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Validate checks fields whose values are constrained.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "pgx", "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("invalid storage.driver %q: want pgx, postgres, mysql or memory", c.Storage.Driver)
	}
	if _, _, err := c.Fiscal.MonthDay(); err != nil {
		return err
	}
	if c.Storage.ReadConcurrency < 1 {
		return fmt.Errorf("invalid storage.read_concurrency %d: must be at least 1", c.Storage.ReadConcurrency)
	}
	return nil
}

// MonthDay parses YearStart.
func (f FiscalConfig) MonthDay() (month, day int, err error) {
	if _, err := fmt.Sscanf(f.YearStart, "%02d-%02d", &month, &day); err != nil {
		return 0, 0, fmt.Errorf("invalid fiscal.year_start %q: want MM-DD", f.YearStart)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("invalid fiscal.year_start %q: want MM-DD", f.YearStart)
	}
	return month, day, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new set of books.
func Default(orgName string) *Config {
	if orgName == "" {
		orgName = "KRIS ACCOUNTING"
	}
	return &Config{
		Organization: OrganizationConfig{
			Name:         orgName,
			CurrencyNote: "(Presented in Rupiah unless otherwise stated)",
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Storage: StorageConfig{
			Driver:          "pgx",
			MaxConns:        10,
			ReadConcurrency: 8,
		},
		Report: ReportConfig{
			Categories: DefaultCategories(),
		},
		Display: DisplayConfig{
			Locale: "id-ID",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultCategories returns the standard statement vocabulary.
func DefaultCategories() Categories {
	return Categories{
		Assets:               []string{"Current Assets", "Long-Term Investments", "Fixed Assets", "Intangible Assets"},
		Liabilities:          []string{"Current Liabilities", "Long-Term Liabilities"},
		COGS:                 "Cost of Goods Sold",
		OperatingExpenses:    []string{"Operating Expenses", "Depreciation Expenses"},
		NonOperatingExpenses: "Non-Operating Expenses",
	}
}
