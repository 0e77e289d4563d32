package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/invoicekit/mediagate/database"
	mediahttp "github.com/invoicekit/mediagate/http"
	"github.com/invoicekit/mediagate/s3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MEDIAGATE"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for mediagate.
type Config struct {
	Env      string               `mapstructure:"env" yaml:"env" validate:"required,oneof=dev prod"`
	Server   ServerConfig         `mapstructure:"server" yaml:"server"`
	Auth     AuthConfig           `mapstructure:"auth" yaml:"auth"`
	Storage  StorageConfig        `mapstructure:"storage" yaml:"storage"`
	Database DatabaseConfig       `mapstructure:"database" yaml:"database"`
	CORS     mediahttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Log      LogConfig            `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration. Timeouts are in seconds;
// zero disables the timeout. CacheControl defaults to
// "private, max-age=3600"; any other value overrides the standard caching
// policy of media responses.
type ServerConfig struct {
	Port              int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout int    `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"min=0"`
	WriteTimeout      int    `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	IdleTimeout       int    `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`
	ShutdownTimeout   int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=1"`
	CacheControl      string `mapstructure:"cache_control" yaml:"cache_control" validate:"required"`
}

// AuthConfig holds the token signing secret. An empty secret is accepted so
// the process can start, but then every media request is rejected.
type AuthConfig struct {
	Secret string `mapstructure:"secret" yaml:"secret"`
}

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Type string    `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem s3"`
	Path string    `mapstructure:"path" yaml:"path"`
	S3   s3.Config `mapstructure:"s3" yaml:"s3"`
}

// DatabaseConfig configures the metadata sidecar of the filesystem store.
type DatabaseConfig struct {
	Enabled         bool `mapstructure:"enabled" yaml:"enabled"`
	database.Config `mapstructure:",squash" yaml:",inline"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"port":         "server.port",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// needs a default, even an empty one, for AutomaticEnv to see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8787)
	v.SetDefault("server.read_header_timeout", 10)
	v.SetDefault("server.write_timeout", 0) // long streams must not be cut off
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.shutdown_timeout", 15)
	v.SetDefault("server.cache_control", mediahttp.DefaultCacheControl)

	v.SetDefault("auth.secret", "")

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.use_path_style", false)

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "mediagate.db")
	v.SetDefault("database.tables.meta_data", "mediagate_metadata")

	v.SetDefault("cors.allow_origin", "*")
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	validate.RegisterStructValidation(validateStorage, StorageConfig{})
	validate.RegisterStructValidation(validateDatabase, DatabaseConfig{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func validateStorage(sl validator.StructLevel) {
	s := sl.Current().Interface().(StorageConfig)

	switch s.Type {
	case "filesystem":
		if s.Path == "" {
			sl.ReportError(s.Path, "Path", "path", "required_if", "filesystem")
		}
	case "s3":
		if s.S3.Bucket == "" {
			sl.ReportError(s.S3.Bucket, "S3.Bucket", "bucket", "required_if", "s3")
		}
	}
}

func validateDatabase(sl validator.StructLevel) {
	d := sl.Current().Interface().(DatabaseConfig)
	if !d.Enabled {
		return
	}

	if d.Type != "sqlite" && d.Type != "postgres" {
		sl.ReportError(d.Type, "Type", "type", "oneof", "sqlite postgres")
	}
	if d.DSN == "" {
		sl.ReportError(d.DSN, "DSN", "dsn", "required", "")
	}
	if err := d.Tables.Validate(); err != nil {
		sl.ReportError(d.Tables.MetaData, "Tables.MetaData", "meta_data", "table_name", "")
	}
}

// Redacted returns a copy of cfg with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}

	c.Auth.Secret = mask(c.Auth.Secret)
	c.Storage.S3.SecretAccessKey = mask(c.Storage.S3.SecretAccessKey)
	c.Database.DSN = redactDSN(c.Database.DSN)
	return c
}

// redactDSN hides the password of a postgres URL DSN.
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":********@" + host
}
