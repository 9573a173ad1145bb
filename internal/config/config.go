// Package config loads layered configuration: built-in defaults, an optional
// junai.yaml config file, then JUNAI_* environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrAPIKeyMissing is returned when no configuration source yields an OpenAI
// API key. It is fatal for analysis runs and surfaced verbatim to the caller.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY is not set: provide it via environment, api.env, or the openai_api_key config value")

type Config struct {
	Addr      string
	DataDir   string
	MediaRoot string

	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	UploadMaxBytes   int64
	DownloadTimeout  time.Duration
	RequestTimeout   time.Duration
	MaxArtifacts     int
	MaxArtifactBytes int64
}

// Load reads configuration. A missing config file is not an error; any other
// read failure is.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("data_dir", "local-data")
	v.SetDefault("media_root", "")
	v.SetDefault("model", "gpt-5")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("upload_max_bytes", int64(50<<20))
	v.SetDefault("download_timeout", 3*time.Minute)
	v.SetDefault("request_timeout", 15*time.Minute)
	v.SetDefault("max_artifacts", 32)
	v.SetDefault("max_artifact_bytes", int64(64<<20))

	v.SetConfigName("junai")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("JUNAI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	cfg := Config{
		Addr:             v.GetString("addr"),
		DataDir:          v.GetString("data_dir"),
		MediaRoot:        v.GetString("media_root"),
		Model:            v.GetString("model"),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		OpenAIBaseURL:    v.GetString("openai_base_url"),
		UploadMaxBytes:   v.GetInt64("upload_max_bytes"),
		DownloadTimeout:  v.GetDuration("download_timeout"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		MaxArtifacts:     v.GetInt("max_artifacts"),
		MaxArtifactBytes: v.GetInt64("max_artifact_bytes"),
	}
	if cfg.MediaRoot == "" {
		cfg.MediaRoot = filepath.Join(cfg.DataDir, "media")
	}
	return cfg, nil
}

// ResolveAPIKey tries the credential sources in order: the OPENAI_API_KEY
// environment variable, then the configured openai_api_key value. First
// non-empty wins.
func (c Config) ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(c.OpenAIAPIKey); key != "" {
		return key, nil
	}
	return "", ErrAPIKeyMissing
}
