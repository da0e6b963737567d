// Package config resolves runtime settings from defaults, an optional config
// file, a .env file and EXPEDITIONS_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "EXPEDITIONS"

type Config struct {
	DBPath           string
	Addr             string
	UploadDir        string
	UploadBaseURL    string
	LogLevel         string
	LogFormat        string
	RewardRetryLimit int
	RequestLogs      bool
	Debug            bool
	// Profile is the default acting profile for CLI commands.
	Profile string
}

func setDefaults(v *viper.Viper, home string) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("db", filepath.Join(home, ".expeditions", "expeditions.db"))
	v.SetDefault("addr", ":8080")
	v.SetDefault("upload_dir", filepath.Join(home, ".expeditions", "uploads"))
	v.SetDefault("upload_base_url", "/files")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("reward_retry_limit", 100)
	v.SetDefault("request_logs", true)
	v.SetDefault("debug", false)
	v.SetDefault("profile", "")
}

// Load reads configFile (optional, any format viper understands) and the .env
// file in the working directory when present.
func Load(configFile string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, home)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		DBPath:           v.GetString("db"),
		Addr:             v.GetString("addr"),
		UploadDir:        v.GetString("upload_dir"),
		UploadBaseURL:    strings.TrimRight(v.GetString("upload_base_url"), "/"),
		LogLevel:         strings.ToLower(v.GetString("log_level")),
		LogFormat:        strings.ToLower(v.GetString("log_format")),
		RewardRetryLimit: v.GetInt("reward_retry_limit"),
		RequestLogs:      v.GetBool("request_logs"),
		Debug:            v.GetBool("debug"),
		Profile:          strings.TrimSpace(v.GetString("profile")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads path into the process environment. Variables that are
// already set win; a missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db path is empty")
	}
	if c.RewardRetryLimit < 0 {
		return fmt.Errorf("config: reward_retry_limit must be >= 0, got %d", c.RewardRetryLimit)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// Logger builds the process logger. Debug forces debug level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil || c.Debug {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
