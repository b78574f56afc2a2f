// Package config loads the ocbd daemon settings from flags, OCB_* env vars and
// <home>/config/app.toml.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "OCB"

	KeyHome          = "home"
	KeyABCIAddr      = "abci.addr"
	KeyABCITransport = "abci.transport"
	KeyDBBackend     = "db.backend"
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"

	DefaultHome          = ".ocb"
	DefaultABCIAddr      = "tcp://127.0.0.1:26658"
	DefaultABCITransport = "socket"
	DefaultDBBackend     = "goleveldb"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "plain"
)

type Config struct {
	Home          string
	ABCIAddr      string
	ABCITransport string
	DBBackend     string
	LogLevel      string
	LogFormat     string
}

// NewViper returns a viper instance with defaults and the OCB env binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyHome, DefaultHome)
	v.SetDefault(KeyABCIAddr, DefaultABCIAddr)
	v.SetDefault(KeyABCITransport, DefaultABCITransport)
	v.SetDefault(KeyDBBackend, DefaultDBBackend)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	return v
}

// ConfigFile is the optional app.toml under home.
func ConfigFile(home string) string {
	return filepath.Join(home, "config", "app.toml")
}

// Load merges <home>/config/app.toml (when present) into v and returns the
// validated settings. Flags and env vars keep precedence over the file.
func Load(v *viper.Viper) (Config, error) {
	home := v.GetString(KeyHome)
	if home == "" {
		return Config{}, fmt.Errorf("config: %s is empty", KeyHome)
	}
	path := ConfigFile(home)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Home:          home,
		ABCIAddr:      v.GetString(KeyABCIAddr),
		ABCITransport: v.GetString(KeyABCITransport),
		DBBackend:     v.GetString(KeyDBBackend),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ABCIAddr == "" {
		return fmt.Errorf("config: %s is empty", KeyABCIAddr)
	}
	switch c.ABCITransport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("config: %s must be socket|grpc, got %q", KeyABCITransport, c.ABCITransport)
	}
	switch c.DBBackend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("config: %s must be goleveldb|memdb, got %q", KeyDBBackend, c.DBBackend)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "plain", "json":
	default:
		return fmt.Errorf("config: %s must be plain|json, got %q", KeyLogFormat, c.LogFormat)
	}
	return nil
}

func parseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("config: unknown %s %q", KeyLogLevel, s)
	}
}

// NewLogger builds the daemon logger writing to w.
func (c Config) NewLogger(w io.Writer) (log.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := []log.Option{log.LevelOption(level), log.ColorOption(false)}
	if c.LogFormat == "json" {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(w, opts...), nil
}

// AppTOML renders the settings in the app.toml layout Load reads back.
func (c Config) AppTOML() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[abci]\naddr = %q\ntransport = %q\n\n", c.ABCIAddr, c.ABCITransport)
	fmt.Fprintf(&b, "[db]\nbackend = %q\n\n", c.DBBackend)
	fmt.Fprintf(&b, "[log]\nlevel = %q\nformat = %q\n", c.LogLevel, c.LogFormat)
	return b.String()
}
