// Package config provides a reusable loader for logicgrid server
// configuration files and environment variables.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"logicgrid/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a logicgrid server. It mirrors the
// structure of the YAML files under configs/.
type Config struct {
	Server struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
		WorldFile  string `mapstructure:"world_file" json:"world_file"`
		SavePath   string `mapstructure:"save_path" json:"save_path"`
	} `mapstructure:"server" json:"server"`

	Simulation struct {
		TickIntervalMS      int `mapstructure:"tick_interval_ms" json:"tick_interval_ms"`
		AutosaveIntervalSec int `mapstructure:"autosave_interval_sec" json:"autosave_interval_sec"`
	} `mapstructure:"simulation" json:"simulation"`

	Status struct {
		Enabled    bool   `mapstructure:"enabled" json:"enabled"`
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"status" json:"status"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// path, if non-empty, names an additional config file (without extension,
// relative to the configured search paths) to merge over the default. env,
// if non-empty, names a second overlay merged after path (e.g. "production").
// Either may be empty.
func Load(path, env string) (*Config, error) {
	viper.SetConfigName("server")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if path != "" {
		viper.SetConfigName(path)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", path))
		}
	}
	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("LOGICGRID")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the LOGICGRID_ENV environment
// variable to select an overlay file.
func LoadFromEnv() (*Config, error) {
	return Load("", utils.EnvOrDefault("LOGICGRID_ENV", ""))
}
