package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg is the global holding the loaded application configuration.
var Cfg *Config

// Config mirrors the structure of config.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Metadata MetadataConfig `mapstructure:"metadata"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig holds the CORS settings.
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig holds the persistent store settings.
type DatabaseConfig struct {
	Sqlite SqliteConfig `mapstructure:"sqlite"`
}

// SqliteConfig points at the SQLite file backing the metadata store.
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// MetadataConfig holds the settings of the metadata editing feature.
type MetadataConfig struct {
	// Editors is the allow-list of actor IDs granted the edit
	// capability.
	Editors []string `mapstructure:"editors"`
	// AllowAnonymous grants the edit capability to every request,
	// including requests without an actor. Intended for local and
	// single-user deployments.
	AllowAnonymous bool `mapstructure:"allowAnonymous"`
	// CacheRefreshInterval is how often the background refresher
	// rehydrates the in-process cache from the store. Zero disables
	// the refresher; single-process deployments do not need it.
	CacheRefreshInterval time.Duration `mapstructure:"cacheRefreshInterval"`
}

// LoadConfig finds, loads and parses the configuration file. It looks
// for config.yaml in ./config and the working directory; a missing
// file is not an error, the defaults below apply.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// Allow overrides via environment variables, e.g. SERVER_ADDRESS.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("database.sqlite.path", "metadata.db")
	v.SetDefault("metadata.allowAnonymous", false)
	v.SetDefault("metadata.cacheRefreshInterval", time.Duration(0))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}
