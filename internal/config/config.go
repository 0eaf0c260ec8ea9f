package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const SupportedVersion = "1"

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Version       string              `yaml:"version" default:"1"`
	Site          SiteConfig          `yaml:"site"`
	Server        ServerConfig        `yaml:"server"`
	API           APIConfig           `yaml:"api"`
	Content       ContentConfig       `yaml:"content"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Drafts        DraftsConfig        `yaml:"drafts"`
	Theme         ThemeConfig         `yaml:"theme"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"The Archive Admin"`
	Description string `yaml:"description" default:"Write, edit and publish posts"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12700"`
}

// APIConfig points at the blog backend. Token is sent verbatim as the
// Authorization header when set.
type APIConfig struct {
	BaseURL   string `yaml:"base_url" default:"http://localhost:8000/api"`
	Token     string `yaml:"token" default:""`
	TimeoutMs int    `yaml:"timeout_ms" default:"15000"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

type ContentConfig struct {
	PostsPerPage  int `yaml:"posts_per_page" default:"9"`
	MetaMaxLength int `yaml:"meta_max_length" default:"150"`
	MaxTags       int `yaml:"max_tags" default:"4"`
}

type NotificationsConfig struct {
	DismissAfterMs int `yaml:"dismiss_after_ms" default:"3000"`
}

func (n NotificationsConfig) DismissAfter() time.Duration {
	return time.Duration(n.DismissAfterMs) * time.Millisecond
}

type DraftsConfig struct {
	// Backend is one of memory, sqlite or fs.
	Backend     string `yaml:"backend" default:"memory"`
	Path        string `yaml:"path" default:"./drafts.db"`
	Compression string `yaml:"compression" default:"zstd"`
}

type ThemeConfig struct {
	Default            string       `yaml:"default" default:"dark"`
	SyntaxHighlighting SyntaxConfig `yaml:"syntax_highlighting"`
}

type SyntaxConfig struct {
	DefaultDark  string `yaml:"default_dark" default:"gruvbox"`
	DefaultLight string `yaml:"default_light" default:"catppuccin-latte"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

var AppConfig *Config

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(config)

	if config.Version != SupportedVersion {
		return nil, fmt.Errorf("unsupported configuration version %q", config.Version)
	}

	return config, nil
}

func LoadConfig(path string) error {
	config, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = config
	return nil
}

func applyEnv(config *Config) {
	overrides := map[string]*string{
		"API_BASE_URL":  &config.API.BaseURL,
		"API_TOKEN":     &config.API.Token,
		"SERVER_HOST":   &config.Server.Host,
		"SERVER_PORT":   &config.Server.Port,
		"LOG_LEVEL":     &config.Logging.Level,
		"DRAFT_BACKEND": &config.Drafts.Backend,
		"DRAFT_PATH":    &config.Drafts.Path,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
