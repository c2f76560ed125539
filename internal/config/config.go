package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/austinhq/austin-web/internal/classifier"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Static     StaticConfig     `mapstructure:"static"`
	Locale     LocaleConfig     `mapstructure:"locale"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Exceptions ExceptionConfig  `mapstructure:"exceptions"`
	WebStat    WebStatConfig    `mapstructure:"webstat"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Env             string        `mapstructure:"env" validate:"oneof=development staging production test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// TrustedProxies lists the addresses or CIDRs whose forwarding headers
	// are believed. Empty means client addresses come from the connection.
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"dive,ip|cidr"`
}

// IsProduction reports whether the server runs in production mode
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// CORSConfig is the cross-origin policy applied to every route.
type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods" validate:"min=1"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age" validate:"gte=0"`
}

// StaticMapping serves Root (a directory or a single file) under Path.
type StaticMapping struct {
	Path string `mapstructure:"path" validate:"required,startswith=/"`
	Root string `mapstructure:"root" validate:"required"`
}

// StaticConfig lists static resource mappings
type StaticConfig struct {
	Mappings []StaticMapping `mapstructure:"mappings" validate:"dive"`
}

// LocaleConfig controls locale resolution
type LocaleConfig struct {
	Default   string   `mapstructure:"default" validate:"required"`
	Supported []string `mapstructure:"supported"`
	Param     string   `mapstructure:"param" validate:"required"`
	Cookie    string   `mapstructure:"cookie" validate:"required"`
}

// PaginationConfig holds paging defaults
type PaginationConfig struct {
	Dialect     string `mapstructure:"dialect" validate:"oneof=mysql postgres sqlite"`
	DefaultSize int    `mapstructure:"default_size" validate:"gt=0"`
	MaxSize     int    `mapstructure:"max_size" validate:"gtefield=DefaultSize"`
}

// ExceptionConfig configures error classification. Mappings are listed as
// type/view pairs because type names contain dots; MappingsFile may point
// at a YAML mapping document that is appended after them.
type ExceptionConfig struct {
	DefaultView          string             `mapstructure:"default_view" validate:"required"`
	ArithmeticView       string             `mapstructure:"arithmetic_view" validate:"required"`
	MissingReferenceView string             `mapstructure:"missing_reference_view" validate:"required"`
	Mappings             []classifier.Entry `mapstructure:"mappings" validate:"dive"`
	MappingsFile         string             `mapstructure:"mappings_file"`
}

// WebStatConfig configures request statistics
type WebStatConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Path       string   `mapstructure:"path" validate:"omitempty,startswith=/"`
	Exclusions []string `mapstructure:"exclusions"`
}

// RateLimitConfig configures the per-client request limiter. A zero
// Requests disables it.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" validate:"gte=0"`
	Window   time.Duration `mapstructure:"window" validate:"gt=0"`
}

// Options tune where Load looks for configuration.
type Options struct {
	// File is an explicit config file. When empty, config.yaml is searched
	// in the working directory and ./config.
	File string
	// EnvFile is loaded into the process environment first when it exists.
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", "1h")

	v.SetDefault("static.mappings", []map[string]any{
		{"path": "/swagger-ui.html", "root": "./resources/swagger-ui.html"},
		{"path": "/webjars", "root": "./resources/webjars"},
		{"path": "/static", "root": "./static"},
	})

	v.SetDefault("locale.default", "zh-CN")
	v.SetDefault("locale.supported", []string{"zh-CN", "en-US"})
	v.SetDefault("locale.param", "lang")
	v.SetDefault("locale.cookie", "locale")

	v.SetDefault("pagination.dialect", "mysql")
	v.SetDefault("pagination.default_size", 10)
	v.SetDefault("pagination.max_size", 500)

	v.SetDefault("exceptions.default_view", classifier.DefaultView)
	v.SetDefault("exceptions.arithmetic_view", classifier.ArithmeticView)
	v.SetDefault("exceptions.missing_reference_view", classifier.MissingReferenceView)
	v.SetDefault("exceptions.mappings_file", "")

	v.SetDefault("webstat.enabled", true)
	v.SetDefault("webstat.path", "/debug/webstat")
	v.SetDefault("webstat.exclusions", []string{"*.js", "*.gif", "*.jpg", "*.png", "*.css", "*.ico", "/debug/webstat*"})

	v.SetDefault("rate_limit.requests", 0)
	v.SetDefault("rate_limit.window", "1m")
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env file is fine
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUSTIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also bind to non-prefixed environment variables for backward compatibility
	_ = v.BindEnv("server.port", "AUSTIN_SERVER_PORT", "PORT")
	_ = v.BindEnv("cors.allowed_origins", "AUSTIN_CORS_ALLOWED_ORIGINS", "CORS_ALLOWED_ORIGINS")

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// It's okay if the searched-for config file doesn't exist
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		trimSpaceHook(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// trimSpaceHook trims whitespace around elements of string slices, so
// "a, b" in an environment variable yields ["a", "b"].
func trimSpaceHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		items, ok := data.([]string)
		if !ok {
			return data, nil
		}
		out := make([]string, 0, len(items))
		for _, s := range items {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that configuration values are present and consistent
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.WebStat.Enabled && c.WebStat.Path == "" {
		return errors.New("invalid configuration: webstat.path is required when webstat is enabled")
	}
	if c.CORS.AllowCredentials && len(c.CORS.AllowedOrigins) == 0 {
		return errors.New("invalid configuration: cors.allow_credentials requires allowed_origins")
	}
	return nil
}

// ExceptionTable builds the exception mapping table: inline mappings
// first, then the entries of MappingsFile in document order.
func (c *Config) ExceptionTable() (*classifier.Table, error) {
	entries := append([]classifier.Entry(nil), c.Exceptions.Mappings...)

	if c.Exceptions.MappingsFile != "" {
		f, err := os.Open(c.Exceptions.MappingsFile)
		if err != nil {
			return nil, fmt.Errorf("open exception mappings: %w", err)
		}
		defer f.Close()

		fromFile, err := classifier.LoadTable(f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFile.Entries()...)
	}

	return classifier.NewTable(entries...)
}

// ClassifierOptions returns the classifier configuration for this config.
func (c *Config) ClassifierOptions() (classifier.Options, error) {
	table, err := c.ExceptionTable()
	if err != nil {
		return classifier.Options{}, err
	}
	return classifier.Options{
		Table:                table,
		DefaultView:          c.Exceptions.DefaultView,
		ArithmeticView:       c.Exceptions.ArithmeticView,
		MissingReferenceView: c.Exceptions.MissingReferenceView,
	}, nil
}
