// Package config loads the back-office settings from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. HXADMIN_API_ROOT.
const EnvPrefix = "HXADMIN"

// Config holds the server settings.
type Config struct {
	Debug    bool
	Addr     string
	APIRoot  string // backend base URL
	APIToken string // bearer token sent to the backend, optional
	// SecretKey signs page props. Hex-encoded in the environment.
	SecretKey    []byte
	PageSize     int
	MenuFile     string // overrides the embedded menu when set
	DevAPI       bool   // serve the in-memory backend under /api
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New returns a viper instance with the defaults and environment binding.
func New() *viper.Viper {
	conf := viper.New()

	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", false)
	conf.SetDefault("addr", ":8080")
	conf.SetDefault("api_root", "http://localhost:8080/api")
	conf.SetDefault("api_token", "")
	conf.SetDefault("secret_key", "")
	conf.SetDefault("page_size", 10)
	conf.SetDefault("menu_file", "")
	conf.SetDefault("dev_api", false)
	conf.SetDefault("read_timeout", 10*time.Second)
	conf.SetDefault("write_timeout", 30*time.Second)

	conf.SetEnvPrefix(EnvPrefix)
	conf.AutomaticEnv()
	return conf
}

// Load reads dotEnvPath when it exists (a missing file is ignored) and
// builds the configuration from the environment.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, fmt.Errorf("config: godotenv(%s): %w", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat(%s): %w", dotEnvPath, err)
		}
	}
	return FromViper(New())
}

// FromViper validates and converts the settings held by conf.
func FromViper(conf *viper.Viper) (*Config, error) {
	cfg := &Config{
		Debug:        conf.GetBool("debug"),
		Addr:         conf.GetString("addr"),
		APIRoot:      conf.GetString("api_root"),
		APIToken:     conf.GetString("api_token"),
		PageSize:     conf.GetInt("page_size"),
		MenuFile:     conf.GetString("menu_file"),
		DevAPI:       conf.GetBool("dev_api"),
		ReadTimeout:  conf.GetDuration("read_timeout"),
		WriteTimeout: conf.GetDuration("write_timeout"),
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("config: page_size must be positive, got %d", cfg.PageSize)
	}
	if cfg.APIRoot == "" {
		return nil, fmt.Errorf("config: api_root is required")
	}

	secret := conf.GetString("secret_key")
	switch {
	case secret != "":
		key, err := hex.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("config: secret_key: %w", err)
		}
		if len(key) < 32 {
			return nil, fmt.Errorf("config: secret_key must be at least 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	case !cfg.Debug:
		return nil, fmt.Errorf("config: secret_key is required unless debug is set")
	}
	return cfg, nil
}
