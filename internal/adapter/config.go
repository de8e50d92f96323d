package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig          `mapstructure:"server"`
	Cache   CacheConfig           `mapstructure:"cache"`
	Reader  domain.ReaderSettings `mapstructure:"reader"`
	UI      UIConfig              `mapstructure:"ui"`
	Viewer  ViewerConfig          `mapstructure:"viewer"`
	Logging LoggingConfig         `mapstructure:"logging"`
}

// ServerConfig holds backend API configuration
type ServerConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Retries      int           `mapstructure:"retries"`
	RetryWait    time.Duration `mapstructure:"retry_wait"`    // minimum backoff between retries
	AccessCookie string        `mapstructure:"access_cookie"` // name of the JWT access token cookie
}

// CacheConfig holds session cache configuration
type CacheConfig struct {
	Dir string        `mapstructure:"dir"` // empty = memory only
	TTL time.Duration `mapstructure:"ttl"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme          string `mapstructure:"theme"`
	PageSize       int    `mapstructure:"page_size"`
	DefaultSection string `mapstructure:"default_section"`
}

// ViewerConfig holds the external image viewer used to open a page
type ViewerConfig struct {
	Command string   `mapstructure:"command"` // empty = system default handler
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:          "https://tomodachi.mooo.com",
			Timeout:      10 * time.Second,
			Retries:      2,
			RetryWait:    500 * time.Millisecond,
			AccessCookie: "AccessToken",
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
			TTL: 5 * time.Minute,
		},
		Reader: domain.ReaderSettings{
			Mode:            domain.ModeVertical,
			Fit:             domain.FitWidth,
			ShowPageNumbers: true,
			Brightness:      100,
		},
		UI: UIConfig{
			Theme:          "default",
			PageSize:       20,
			DefaultSection: string(domain.SectionPopular),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "tomodachi", "tomodachi.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "tomodachi", "tomodachi.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "tomodachi")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tomodachi")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "tomodachi", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "tomodachi", "cache")
	}
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("server.retries", cfg.Server.Retries)
	v.SetDefault("server.retry_wait", cfg.Server.RetryWait)
	v.SetDefault("server.access_cookie", cfg.Server.AccessCookie)

	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("reader.mode", string(cfg.Reader.Mode))
	v.SetDefault("reader.fit", string(cfg.Reader.Fit))
	v.SetDefault("reader.show_page_numbers", cfg.Reader.ShowPageNumbers)
	v.SetDefault("reader.brightness", cfg.Reader.Brightness)
	v.SetDefault("reader.container_width", cfg.Reader.ContainerWidth)
	v.SetDefault("reader.half_tone", cfg.Reader.HalfTone)

	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("ui.page_size", cfg.UI.PageSize)
	v.SetDefault("ui.default_section", cfg.UI.DefaultSection)

	v.SetDefault("viewer.command", cfg.Viewer.Command)
	v.SetDefault("viewer.args", cfg.Viewer.Args)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.GetViper()

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	setDefaults(v, cfg)

	// Environment variable overrides, e.g. TOMODACHI_SERVER_URL
	v.SetEnvPrefix("TOMODACHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Reader = cfg.Reader.Normalize()
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.UI.PageSize <= 0 {
		cfg.UI.PageSize = 20
	}
	return cfg, nil
}

// ConfigFilePath returns the file settings are written back to: the one
// LoadConfig read, or config.yaml in the default config directory.
func ConfigFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// SaveConfig writes cfg to path, creating its directory
func SaveConfig(cfg *Config, path string) error {
	v := fileViper(path)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.retries", cfg.Server.Retries)
	v.Set("server.retry_wait", cfg.Server.RetryWait.String())
	v.Set("server.access_cookie", cfg.Server.AccessCookie)

	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.ttl", cfg.Cache.TTL.String())

	setReaderSettings(v, cfg.Reader)

	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.default_section", cfg.UI.DefaultSection)

	v.Set("viewer.command", cfg.Viewer.Command)
	v.Set("viewer.args", cfg.Viewer.Args)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	return writeConfig(v, path)
}

func setReaderSettings(v *viper.Viper, s domain.ReaderSettings) {
	v.Set("reader.mode", string(s.Mode))
	v.Set("reader.fit", string(s.Fit))
	v.Set("reader.show_page_numbers", s.ShowPageNumbers)
	v.Set("reader.brightness", s.Brightness)
	v.Set("reader.container_width", s.ContainerWidth)
	v.Set("reader.half_tone", s.HalfTone)
}

// SaveReaderSettings updates just the reader section of the file at path.
// Other keys keep what the file holds; defaults and environment overrides
// are not written.
func SaveReaderSettings(path string, s domain.ReaderSettings) error {
	v := fileViper(path)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error reading config file: %w", err)
	}
	setReaderSettings(v, s)
	return writeConfig(v, path)
}

// fileViper returns an isolated viper bound to path; files without an
// extension are treated as YAML
func fileViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	return v
}

func writeConfig(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetCachePath returns the default cache directory path
func GetCachePath() string {
	return defaultCachePath()
}
