package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. GD_HOST.
const EnvPrefix = "GD_"

// Config holds the runtime settings for the dashboard server.
type Config struct {
	Host             string        `koanf:"host" json:"host"`
	APIToken         string        `koanf:"api_token" json:"api_token"`
	ListenAddr       string        `koanf:"listen_addr" json:"listen_addr"`
	BasePath         string        `koanf:"base_path" json:"base_path"`
	PublishWorkspace string        `koanf:"publish_workspace" json:"publish_workspace"`
	AIWorkspace      string        `koanf:"ai_workspace" json:"ai_workspace"`
	HTTPTimeout      time.Duration `koanf:"http_timeout" json:"http_timeout"`
	SessionSecret    string        `koanf:"session_secret" json:"session_secret"`
	SessionTTL       time.Duration `koanf:"session_ttl" json:"session_ttl"`
	MemoTTL          time.Duration `koanf:"memo_ttl" json:"memo_ttl"`
	MetricsAddr      string        `koanf:"metrics_addr" json:"metrics_addr"`
	LogLevel         string        `koanf:"log_level" json:"log_level"`
	LogJSON          bool          `koanf:"log_json" json:"log_json"`
	PanelsManifest   string        `koanf:"panels_manifest" json:"panels_manifest"`
	ChartAssetsHost  string        `koanf:"chart_assets_host" json:"chart_assets_host"`
}

// Defaults returns the built-in configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"listen_addr":       ":8080",
		"base_path":         "/gd",
		"publish_workspace": "gd_hackaton",
		"ai_workspace":      "gd_hackaton",
		"http_timeout":      "30s",
		"session_ttl":       "12h",
		"memo_ttl":          "15m",
		"log_level":         "info",
		"log_json":          false,
	}
}

// Load resolves configuration from defaults, an optional YAML file,
// GD_-prefixed environment variables and explicit overrides, in that order.
// Overrides typically carry CLI flags the user actually set.
func Load(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(compact(overrides), "."), nil); err != nil {
			return Config{}, fmt.Errorf("config: load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Host = strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	return cfg, nil
}

// Validate reports missing connection settings and malformed values as a
// validation error.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required, is.URL),
		validation.Field(&c.APIToken, validation.Required),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.BasePath, validation.Required, validation.By(leadingSlash)),
		validation.Field(&c.PublishWorkspace, validation.Required),
		validation.Field(&c.AIWorkspace, validation.Required),
		validation.Field(&c.HTTPTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, "invalid configuration")
}

func leadingSlash(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return fmt.Errorf("must start with /")
	}
	return nil
}

func compact(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		}
		out[key] = value
	}
	return out
}
