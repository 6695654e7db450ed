// Package config resolves runtime settings for the chordmatch binaries from
// defaults, CHORDMATCH_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CHORDMATCH"

// Settings holds everything the server and CLI need to start.
type Settings struct {
	CorpusPath     string
	DBPath         string
	Port           int
	AllowedOrigins []string
	Workers        int
	LogLevel       string
	LogFormat      string
	// RateLimit is the number of rating requests allowed per client IP per
	// minute.
	RateLimit int
}

// Config keys, shared by flags, environment variables and viper.
const (
	KeyCorpus    = "corpus"
	KeyDB        = "db"
	KeyPort      = "port"
	KeyOrigins   = "allowed-origins"
	KeyWorkers   = "workers"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
	KeyRateLimit = "rate-limit"
)

func Defaults() Settings {
	return Settings{
		CorpusPath:     "data/chords_and_lyrics.csv",
		DBPath:         "chordmatch.sqlite3",
		Port:           8000,
		AllowedOrigins: []string{"*"},
		Workers:        0,
		LogLevel:       "info",
		LogFormat:      "console",
		RateLimit:      30,
	}
}

// New returns a viper instance seeded with defaults and bound to the
// CHORDMATCH_ environment, so CHORDMATCH_DB overrides the db key.
func New() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeyCorpus, d.CorpusPath)
	v.SetDefault(KeyDB, d.DBPath)
	v.SetDefault(KeyPort, d.Port)
	v.SetDefault(KeyOrigins, d.AllowedOrigins)
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyRateLimit, d.RateLimit)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindCommonFlags registers the flags both binaries share and binds them to v.
func BindCommonFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	d := Defaults()
	fs.String(KeyCorpus, d.CorpusPath, "Path to the chords and lyrics CSV corpus")
	fs.String(KeyDB, d.DBPath, "Path to the SQLite ratings database")
	fs.Int(KeyWorkers, d.Workers, "Extraction workers while loading (0 = one per CPU)")
	fs.String(KeyLogLevel, d.LogLevel, "Log level: debug, info, warn, error")
	fs.String(KeyLogFormat, d.LogFormat, "Log format: console or json")
	return bind(fs, v, KeyCorpus, KeyDB, KeyWorkers, KeyLogLevel, KeyLogFormat)
}

// BindServerFlags registers the HTTP server flags and binds them to v.
func BindServerFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	d := Defaults()
	fs.Int(KeyPort, d.Port, "HTTP listen port")
	fs.StringSlice(KeyOrigins, d.AllowedOrigins, "Allowed CORS origins")
	fs.Int(KeyRateLimit, d.RateLimit, "Rating requests per minute per client IP")
	return bind(fs, v, KeyPort, KeyOrigins, KeyRateLimit)
}

func bind(fs *pflag.FlagSet, v *viper.Viper, keys ...string) error {
	for _, k := range keys {
		if err := v.BindPFlag(k, fs.Lookup(k)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", k, err)
		}
	}
	return nil
}

// Load reads the resolved settings out of v and validates them.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		CorpusPath:     v.GetString(KeyCorpus),
		DBPath:         v.GetString(KeyDB),
		Port:           v.GetInt(KeyPort),
		AllowedOrigins: splitOrigins(v.GetStringSlice(KeyOrigins)),
		Workers:        v.GetInt(KeyWorkers),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
		RateLimit:      v.GetInt(KeyRateLimit),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.CorpusPath) == "" {
		return fmt.Errorf("corpus path must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", s.Workers)
	}
	if s.RateLimit < 1 {
		return fmt.Errorf("rate limit must be >= 1, got %d", s.RateLimit)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", s.LogFormat)
	}
	return nil
}

// splitOrigins accepts both repeated values and a single comma-separated
// environment value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	if len(out) == 0 {
		return Defaults().AllowedOrigins
	}
	return out
}
