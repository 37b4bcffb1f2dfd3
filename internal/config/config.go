// Package config loads settings for the server and the client commands.
//
// Values are layered: built-in defaults, an optional YAML file, a .env file,
// process environment, then command-line flags. Environment names are derived
// from keys, so openai.api_key is read from OPENAI_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HugeFrog24/gpt-video-studio/internal/logging"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Storage       StorageConfig       `mapstructure:"storage"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Completion    CompletionConfig    `mapstructure:"completion"`
	Media         MediaConfig         `mapstructure:"media"`
	Client        ClientConfig        `mapstructure:"client"`
	Log           logging.Config      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type StorageConfig struct {
	UploadDir      string `mapstructure:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	CompletionModel    string `mapstructure:"completion_model"`
}

type TranscriptionConfig struct {
	Language string `mapstructure:"language"`
}

type CompletionConfig struct {
	DefaultTemperature float64 `mapstructure:"default_temperature"`
}

type MediaConfig struct {
	FFmpegPath   string `mapstructure:"ffmpeg_path"`
	FFprobePath  string `mapstructure:"ffprobe_path"`
	AudioBitrate string `mapstructure:"audio_bitrate"`
	TempDir      string `mapstructure:"temp_dir"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]any{
	"server.port":                    3333,
	"server.shutdown_timeout":        10 * time.Second,
	"database.driver":                "sqlite",
	"database.dsn":                   "data/studio.db",
	"storage.upload_dir":             "tmp/uploads",
	"storage.max_upload_bytes":       int64(25 * 1024 * 1024),
	"openai.api_key":                 "",
	"openai.base_url":                "",
	"openai.transcription_model":     "whisper-1",
	"openai.completion_model":        "gpt-3.5-turbo-16k",
	"transcription.language":         "pt",
	"completion.default_temperature": 0.5,
	"media.ffmpeg_path":              "ffmpeg",
	"media.ffprobe_path":             "ffprobe",
	"media.audio_bitrate":            "20k",
	"media.temp_dir":                 ".tmp",
	"client.base_url":                "http://localhost:3333",
	"client.timeout":                 10 * time.Minute,
	"log.level":                      "info",
	"log.format":                     logging.FormatConsole,
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"port":       "server.port",
	"server-url": "client.base_url",
	"log-level":  "log.level",
	"log-format": "log.format",
	"language":   "transcription.language",
	"temp-dir":   "media.temp_dir",
}

type loaderConfig struct {
	envFile    string
	configFile string
	flags      *pflag.FlagSet
}

type Option func(*loaderConfig)

func WithEnvFile(path string) Option {
	return func(c *loaderConfig) { c.envFile = path }
}

func WithConfigFile(path string) Option {
	return func(c *loaderConfig) { c.configFile = path }
}

func WithFlags(fs *pflag.FlagSet) Option {
	return func(c *loaderConfig) { c.flags = fs }
}

// Load resolves the configuration. A missing .env or config file is not an error.
func Load(opts ...Option) (Config, error) {
	lc := loaderConfig{envFile: ".env"}
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.envFile != "" {
		if err := godotenv.Load(lc.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", lc.envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", lc.configFile, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if lc.flags != nil {
		for name, key := range flagKeys {
			if f := lc.flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ValidateServer checks the settings the API server cannot start without.
func (c Config) ValidateServer() error {
	var problems []string
	if c.OpenAI.APIKey == "" {
		problems = append(problems, "OPENAI_API_KEY is not set")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be sqlite or postgres (got %q)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		problems = append(problems, "database.dsn is required")
	}
	if c.Server.Port <= 0 {
		problems = append(problems, "server.port must be positive")
	}
	if t := c.Completion.DefaultTemperature; t < 0 || t > 1 {
		problems = append(problems, "completion.default_temperature must be within [0,1]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
