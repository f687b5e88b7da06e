package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultTickInterval = time.Second

type Config struct {
	DataDir      string        `yaml:"-"`
	RosterPath   string        `yaml:"roster"`
	JournalPath  string        `yaml:"journal"`
	ReportDir    string        `yaml:"report_dir"`
	TickInterval time.Duration `yaml:"tick_interval"`
	LogLevel     string        `yaml:"log_level"`
	LogFile      string        `yaml:"log_file"`
	LogJSON      bool          `yaml:"log_json"`
	WatchRoster  bool          `yaml:"watch_roster"`
	Reports      bool          `yaml:"reports"`
}

func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data directory is required")
	}
	return Config{
		DataDir:      dataDir,
		JournalPath:  filepath.Join(dataDir, ".examclock", "journal.db"),
		ReportDir:    filepath.Join(dataDir, "reports"),
		TickInterval: DefaultTickInterval,
		LogLevel:     "info",
	}, nil
}

// Load overlays the YAML file at path onto the defaults for dataDir. A
// missing file is not an error. Relative paths in the file resolve against
// dataDir.
func Load(path, dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.RosterPath = cfg.resolve(cfg.RosterPath)
	cfg.JournalPath = cfg.resolve(cfg.JournalPath)
	cfg.ReportDir = cfg.resolve(cfg.ReportDir)
	cfg.LogFile = cfg.resolve(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("unsupported log_level %q", c.LogLevel)
	}
	return nil
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(c.DataDir, path)
}
