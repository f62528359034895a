// Package config loads timefs settings from an optional YAML file and
// TIMEFS_* environment variables.
//
// Precedence, highest first: environment, config file, defaults.
// Example: TIMEFS_CACHE_ROOT=/scratch/timefs overrides cache.root.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/filestore"
	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/vfs"
	"github.com/spf13/viper"
)

// Config is the complete timefs configuration.
type Config struct {
	Logging     LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Cache       CacheConfig      `mapstructure:"cache" yaml:"cache"`
	HTTP        HTTPConfig       `mapstructure:"http" yaml:"http"`
	FTP         FTPConfig        `mapstructure:"ftp" yaml:"ftp"`
	ObjectStore filestore.Config `mapstructure:"object_store" yaml:"object_store"`
	Metrics     MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Serve       ServeConfig      `mapstructure:"serve" yaml:"serve"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level" validate:"required,oneof=trace debug info warn error"`
	Format     string `mapstructure:"format" yaml:"format" validate:"required,oneof=console json"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// CacheConfig locates the local mirror of remote roots.
type CacheConfig struct {
	Root      string `mapstructure:"root" yaml:"root" validate:"required"`
	Component string `mapstructure:"component" yaml:"component" validate:"required,excludesall=/\\"`
	ChunkSize int    `mapstructure:"chunk_size" yaml:"chunk_size" validate:"gt=0"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// FTPConfig holds the login used when an ftp:// URI carries none.
type FTPConfig struct {
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// ServeConfig configures `timefs serve`.
type ServeConfig struct {
	Address string `mapstructure:"address" yaml:"address" validate:"required,hostname_port"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	opts := vfs.DefaultOptions()
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console", TimeFormat: "rfc3339"},
		Cache: CacheConfig{
			Root:      opts.CacheRoot,
			Component: opts.Component,
			ChunkSize: opts.ChunkSize,
		},
		HTTP:        HTTPConfig{Timeout: opts.Timeout, UserAgent: opts.UserAgent},
		FTP:         FTPConfig{User: "anonymous", Password: "anonymous"},
		ObjectStore: filestore.Config{Provider: filestore.ProviderMinIO, UseSSL: true},
		Serve:       ServeConfig{Address: "127.0.0.1:8080"},
	}
}

// Load reads configPath, or config.yaml in the default config directory
// when configPath is empty. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errs.Wrap(errs.ErrKindInvalidArgument, "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "failed to unmarshal config", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("TIMEFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(ConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// setDefaults registers every key so that environment overrides apply even
// without a config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
	v.SetDefault("cache.root", d.Cache.Root)
	v.SetDefault("cache.component", d.Cache.Component)
	v.SetDefault("cache.chunk_size", d.Cache.ChunkSize)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("ftp.user", d.FTP.User)
	v.SetDefault("ftp.password", d.FTP.Password)
	v.SetDefault("object_store.provider", string(d.ObjectStore.Provider))
	v.SetDefault("object_store.endpoint", d.ObjectStore.Endpoint)
	v.SetDefault("object_store.access_key", d.ObjectStore.AccessKey)
	v.SetDefault("object_store.secret_key", d.ObjectStore.SecretKey)
	v.SetDefault("object_store.use_ssl", d.ObjectStore.UseSSL)
	v.SetDefault("object_store.region", d.ObjectStore.Region)
	v.SetDefault("object_store.default_bucket", d.ObjectStore.DefaultBucket)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("serve.address", d.Serve.Address)
}

// ConfigDir is $XDG_CONFIG_HOME/timefs, falling back to ~/.config/timefs.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "timefs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "timefs")
}

// Logger builds the logger described by the logging section.
func (c *Config) Logger() *logger.Logger {
	return logger.New(&logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		TimeFormat: c.Logging.TimeFormat,
		Output:     os.Stderr,
	})
}

// VFSOptions converts the configuration into backend options.
func (c *Config) VFSOptions(log *logger.Logger, m vfs.Metrics) vfs.Options {
	return vfs.Options{
		CacheRoot:   c.Cache.Root,
		Component:   c.Cache.Component,
		ChunkSize:   c.Cache.ChunkSize,
		Timeout:     c.HTTP.Timeout,
		UserAgent:   c.HTTP.UserAgent,
		FTPUser:     c.FTP.User,
		FTPPassword: c.FTP.Password,
		ObjectStore: c.ObjectStore,
		Logger:      log,
		Metrics:     m,
	}
}
