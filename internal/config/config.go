package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all salescast configuration.
type Config struct {
	Paths      PathsConfig      `toml:"paths"`
	Forecast   ForecastConfig   `toml:"forecast"`
	Actuals    ActualsConfig    `toml:"actuals"`
	Dashboard  DashboardConfig  `toml:"dashboard"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// PathsConfig locates every file the pipeline reads or writes.
type PathsConfig struct {
	Train       string `toml:"train"`
	Stores      string `toml:"stores"`
	DailySales  string `toml:"daily_sales"`
	Actuals     string `toml:"actuals"`
	ExportDir   string `toml:"export_dir"`
	VisualsDir  string `toml:"visuals_dir"`
	DownloadDir string `toml:"download_dir"`
	CacheDB     string `toml:"cache_db,omitempty"`
}

// ForecastConfig holds model and fitting settings.
type ForecastConfig struct {
	HorizonDays      int     `toml:"horizon_days"`
	MinHistory       int     `toml:"min_history"`
	IntervalWidth    float64 `toml:"interval_width"`
	Weekly           bool    `toml:"weekly"`
	Yearly           bool    `toml:"yearly"`
	WeeklyOrder      int     `toml:"weekly_order"`
	YearlyOrder      int     `toml:"yearly_order"`
	Changepoints     int     `toml:"changepoints"`
	ChangepointRange float64 `toml:"changepoint_range"`
	ChangepointPrior float64 `toml:"changepoint_prior"`
	SeasonalityPrior float64 `toml:"seasonality_prior"`
	Workers          int     `toml:"workers,omitempty"`
	Plots            bool    `toml:"plots"`
}

// ActualsConfig controls how actuals are aggregated.
type ActualsConfig struct {
	ByStore bool `toml:"by_store"`
}

// DashboardConfig holds dashboard defaults.
type DashboardConfig struct {
	DefaultStore string `toml:"default_store,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file,omitempty"`
	Pretty bool   `toml:"pretty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			Train:       filepath.Join("data", "train.csv"),
			Stores:      filepath.Join("data", "store.csv"),
			DailySales:  filepath.Join("data", "daily_sales.csv"),
			Actuals:     filepath.Join("data", "actuals.csv"),
			ExportDir:   "export",
			VisualsDir:  "visuals",
			DownloadDir: "downloads",
		},
		Forecast: ForecastConfig{
			HorizonDays:      730,
			MinHistory:       100,
			IntervalWidth:    0.8,
			Weekly:           true,
			Yearly:           true,
			WeeklyOrder:      3,
			YearlyOrder:      10,
			Changepoints:     25,
			ChangepointRange: 0.8,
			ChangepointPrior: 0.05,
			SeasonalityPrior: 10,
			Plots:            true,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

var overridePath string

// SetPath points Load and Save at an explicit file instead of the XDG location.
func SetPath(p string) {
	overridePath = p
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if overridePath != "" {
		return filepath.Dir(overridePath)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "salescast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "salescast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	if overridePath != "" {
		return overridePath
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// CachePath returns the sqlite cache location, defaulting to the XDG cache dir.
func CachePath(cfg Config) string {
	if cfg.Paths.CacheDB != "" {
		return cfg.Paths.CacheDB
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "salescast", "forecasts.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "salescast", "forecasts.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	f := c.Forecast
	if f.HorizonDays < 0 {
		return fmt.Errorf("forecast.horizon_days must be >= 0, got %d", f.HorizonDays)
	}
	// the model needs at least three points to fit
	if f.MinHistory < 3 {
		return fmt.Errorf("forecast.min_history must be >= 3, got %d", f.MinHistory)
	}
	if f.IntervalWidth <= 0 || f.IntervalWidth >= 1 {
		return fmt.Errorf("forecast.interval_width must be in (0, 1), got %g", f.IntervalWidth)
	}
	if f.ChangepointRange <= 0 || f.ChangepointRange > 1 {
		return fmt.Errorf("forecast.changepoint_range must be in (0, 1], got %g", f.ChangepointRange)
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
