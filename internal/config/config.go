// Package config loads server configuration from a yaml file with
// WHISPER_-prefixed environment overrides. The encryption key lives here
// and nowhere else; it is handed to the cipher once at startup and never
// logged.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Crypto   Crypto
	Auth     Auth
}

type Server struct {
	Addr      string
	StaticDir string
	LogLevel  string
}

type Database struct {
	Driver string
	DSN    string
}

type Crypto struct {
	// EncryptionKey is the AES-256 key as 64 hex characters.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type Auth struct {
	CookieSecret string `mapstructure:"cookie_secret"`
}

func Load(filename string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WHISPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.staticdir", "static")
	v.SetDefault("server.loglevel", "info")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "whisper.db")
	// Registered empty so Unmarshal sees the keys when they arrive only
	// through WHISPER_* environment variables; AutomaticEnv alone does not
	// surface keys viper has never heard of.
	v.SetDefault("crypto.encryption_key", "")
	v.SetDefault("auth.cookie_secret", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No file is fine as long as the environment fills the gaps.
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if len(c.Crypto.EncryptionKey) != 64 {
		return errors.New("crypto.encryption_key must be 64 hex characters (32 bytes)")
	}
	if c.Auth.CookieSecret == "" {
		return errors.New("auth.cookie_secret is required")
	}
	return nil
}
