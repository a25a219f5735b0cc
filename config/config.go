package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"findimg/imageprocessor"
	"findimg/utils"

	"github.com/BurntSushi/toml"
	"github.com/mcuadros/go-defaults"
	"github.com/pkg/errors"
)

// Environment variables read by Load
const (
	EnvSensitivity = "FINDIMG_SENSITIVITY"
	EnvDistance    = "FINDIMG_DISTANCE"
	EnvExclude     = "FINDIMG_EXCLUDE"
	EnvDebug       = "FINDIMG_DEBUG"
	EnvLogFile     = "FINDIMG_LOGFILE"
)

// Config holds the search settings
type Config struct {
	Sensitivity int      `toml:"sensitivity" default:"7"`
	Distance    int      `toml:"distance" default:"0"`
	Exclude     []string `toml:"exclude"`
	Debug       bool     `toml:"debug" default:"false"`
	LogFile     string   `toml:"logfile"`
}

// ValidationError reports an unusable setting
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// New returns a Config populated with defaults
func New() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "findimg", "config.toml")
}

// Load builds a Config from defaults, a TOML file and the environment.
// An explicitly named file must exist; the default one is optional.
func Load(path string) (*Config, error) {
	cfg := New()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, errors.Wrapf(err, "cannot parse config %s", path)
			}
			cfg.Exclude = utils.NormalizeExcludeList(cfg.Exclude)
		} else if explicit {
			return nil, errors.Errorf("Config file does not exist: %s", path)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Sensitivity = getEnvInt(EnvSensitivity, c.Sensitivity)
	c.Distance = getEnvInt(EnvDistance, c.Distance)
	c.Exclude = getEnvList(EnvExclude, c.Exclude)
	c.Debug = getEnvBool(EnvDebug, c.Debug)
	c.LogFile = getEnv(EnvLogFile, c.LogFile)
}

// Validate checks settings that must hold before a search starts
func (c *Config) Validate() error {
	if err := imageprocessor.Sensitivity(c.Sensitivity).Validate(); err != nil {
		return &ValidationError{
			Field:   "sensitivity",
			Message: fmt.Sprintf("Sensitivity must be in range from %d to %d, you passed: %d",
				imageprocessor.MinSensitivity, imageprocessor.MaxSensitivity, c.Sensitivity),
		}
	}
	if c.Distance < 0 {
		return &ValidationError{
			Field:   "distance",
			Message: fmt.Sprintf("Distance must not be negative, you passed: %d", c.Distance),
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		return utils.ParseExcludeList(v)
	}
	return def
}
