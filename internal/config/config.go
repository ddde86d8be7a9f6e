// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package config loads the configuration of the jinglectl command.
//
// Values are read from an optional YAML file and may be overridden by
// environment variables with the JINGLECTL_ prefix, for example
// JINGLECTL_ACCOUNT_PASSWORD sets account.password.
package config // import "mellium.im/jingle/internal/config"

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"mellium.im/xmpp/jid"
)

// EnvPrefix is the prefix of environment variables that override the
// configuration file.
const EnvPrefix = "JINGLECTL"

// Errors returned by Validate.
var (
	ErrNoAccount = errors.New("config: account.jid is required")
	ErrNoMedia   = errors.New("config: call.media must list at least one media type")
)

// Config is the configuration of the command.
type Config struct {
	Account AccountConfig `mapstructure:"account"`
	Call    CallConfig    `mapstructure:"call"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AccountConfig is the XMPP account used to place and answer calls.
type AccountConfig struct {
	JID      string `mapstructure:"jid"`
	Password string `mapstructure:"password"`
	// Addr is the host:port of the server.
	// If empty it is looked up using the domainpart of JID.
	Addr     string `mapstructure:"addr"`
	Resource string `mapstructure:"resource"`
}

// CallConfig holds the defaults for outgoing calls.
type CallConfig struct {
	Media   []string      `mapstructure:"media"`
	Timeout time.Duration `mapstructure:"timeout"`
	// AutoAccept answers incoming calls without asking.
	AutoAccept bool `mapstructure:"auto_accept"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	File   FileConfig `mapstructure:"file"`
}

// FileConfig enables writing logs to a rotated file in addition to stderr.
type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig controls the Prometheus endpoint.
// An empty Listen address disables it.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
	Path   string `mapstructure:"path"`
}

// Load reads the configuration from the file at path and the environment.
// If path is empty only defaults and the environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: error reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: error decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so that environment variables are picked up
// even when the file does not mention them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("account.jid", "")
	v.SetDefault("account.password", "")
	v.SetDefault("account.addr", "")
	v.SetDefault("account.resource", "jinglectl")

	v.SetDefault("call.media", []string{"audio"})
	v.SetDefault("call.timeout", 30*time.Second)
	v.SetDefault("call.auto_accept", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size", 10)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age", 28)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate reports the first invalid value in cfg.
func (cfg *Config) Validate() error {
	if cfg.Account.JID == "" {
		return ErrNoAccount
	}
	if _, err := jid.Parse(cfg.Account.JID); err != nil {
		return fmt.Errorf("config: invalid account.jid %q: %w", cfg.Account.JID, err)
	}
	if len(cfg.Call.Media) == 0 {
		return ErrNoMedia
	}
	for _, m := range cfg.Call.Media {
		if m != "audio" && m != "video" {
			return fmt.Errorf("config: unknown media type %q (must be audio or video)", m)
		}
	}
	if cfg.Call.Timeout <= 0 {
		return fmt.Errorf("config: call.timeout must be positive, got %s", cfg.Call.Timeout)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: invalid log.level %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("config: invalid log.format %q (must be text or json)", cfg.Log.Format)
	}
	return nil
}

// Address returns the parsed account JID with the configured resource.
func (cfg *Config) Address() (jid.JID, error) {
	j, err := jid.Parse(cfg.Account.JID)
	if err != nil {
		return jid.JID{}, err
	}
	if j.Resourcepart() != "" || cfg.Account.Resource == "" {
		return j, nil
	}
	return j.WithResource(cfg.Account.Resource)
}
