package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMarkdown = "markdown"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"

	ViewBoard   = "board"
	ViewArchive = "archive"

	envPrefix = "PLANNER"
)

// Config holds the unified application configuration
type Config struct {
	DataDir       string        `mapstructure:"data_dir"`
	Store         string        `mapstructure:"store"`
	DBPath        string        `mapstructure:"db_path"`
	Owner         string        `mapstructure:"owner"`
	UndoWindow    time.Duration `mapstructure:"undo_window"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
	UploadDir     string        `mapstructure:"upload_dir"`
	UploadBaseURL string        `mapstructure:"upload_base_url"`
	LogLevel      string        `mapstructure:"log_level"`
	DefaultView   string        `mapstructure:"default_view"`
}

// CLIFlags holds parsed CLI flags. Empty fields leave lower layers alone.
type CLIFlags struct {
	DataDir  string
	Store    string
	Owner    string
	LogLevel string
	View     string
}

var globalConfig *Config

func setDefaults(v *viper.Viper) error {
	defaultDir, err := GetDefaultDir()
	if err != nil {
		return err
	}
	owner := "default"
	if u := os.Getenv("USER"); u != "" {
		owner = u
	}

	v.SetDefault("data_dir", defaultDir)
	v.SetDefault("store", StoreMarkdown)
	v.SetDefault("db_path", "")
	v.SetDefault("owner", owner)
	v.SetDefault("undo_window", "7s")
	v.SetDefault("max_image_bytes", 5*1024*1024)
	v.SetDefault("upload_dir", "")
	v.SetDefault("upload_base_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("default_view", ViewBoard)
	return nil
}

// Load loads configuration with priority: CLI flags > env vars > config file > default
func Load(flags CLIFlags) (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath, flags)
}

// LoadFrom is Load with an explicit config file path. A missing file is not an error.
func LoadFrom(configPath string, flags CLIFlags) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for key, value := range map[string]string{
		"data_dir":     flags.DataDir,
		"store":        flags.Store,
		"owner":        flags.Owner,
		"log_level":    flags.LogLevel,
		"default_view": flags.View,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// finish expands paths, fills derived values and validates
func (c *Config) finish() error {
	c.DataDir = expandPath(c.DataDir)
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.DefaultView = strings.ToLower(strings.TrimSpace(c.DefaultView))

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "planner.db")
	}
	c.DBPath = expandPath(c.DBPath)
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(c.DataDir, "uploads")
	}
	c.UploadDir = expandPath(c.UploadDir)

	switch c.Store {
	case StoreMarkdown, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want markdown, sqlite or memory)", c.Store)
	}
	switch c.DefaultView {
	case ViewBoard, ViewArchive:
	default:
		return fmt.Errorf("unknown view %q (want board or archive)", c.DefaultView)
	}
	if strings.TrimSpace(c.Owner) == "" {
		return errors.New("owner cannot be empty")
	}
	if c.UndoWindow <= 0 {
		return fmt.Errorf("undo_window must be positive, got %s", c.UndoWindow)
	}
	return nil
}

// Get returns the loaded config
func Get() *Config {
	return globalConfig
}

// GetDefaultDir returns the default data directory
func GetDefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "planner"), nil
}

// EnsureDataDir creates the data directory if missing
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// getConfigPath returns the path to the configuration file.
// PLANNER_CONFIG overrides the default location.
func getConfigPath() (string, error) {
	if p := os.Getenv(envPrefix + "_CONFIG"); p != "" {
		return expandPath(p), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "planner", "config.yaml"), nil
}

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}
	return writeDefaultConfig(configPath)
}

func writeDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	v := viper.New()
	if err := setDefaults(v); err != nil {
		return err
	}
	v.SetConfigType("yaml")
	if err := v.SafeWriteConfigAs(configPath); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return nil
		}
		return err
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
