// Package config loads service settings from defaults, an optional YAML file,
// a .env file and RICE_ prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RICE_MODEL_PATH.
const EnvPrefix = "RICE"

type Config struct {
	Server   ServerConfig
	Model    ModelConfig
	Assets   AssetsConfig
	Telegram TelegramConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            int
	MaxUploadMB     int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// MaxUploadBytes is the multipart limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

type ModelConfig struct {
	Path           string
	MetadataPath   string
	LibraryPath    string
	IntraOpThreads int
	InterOpThreads int
}

type AssetsConfig struct {
	Dir string
}

type TelegramConfig struct {
	Token string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("model.path", "models/resnet18_best.onnx")
	v.SetDefault("model.metadata_path", "")
	v.SetDefault("model.library_path", "")
	v.SetDefault("model.intra_op_threads", 0)
	v.SetDefault("model.inter_op_threads", 0)

	v.SetDefault("assets.dir", "assets")
	v.SetDefault("telegram.token", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads configuration into a Config. cfgFile may be empty, in which case
// ./config.yaml is used when present.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is what most hosting platforms set.
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, errors.Wrap(err, "failed to bind port env")
	}
	if err := v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"); err != nil {
		return nil, errors.Wrap(err, "failed to bind telegram env")
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			MaxUploadMB:     v.GetInt("server.max_upload_mb"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Model: ModelConfig{
			Path:           v.GetString("model.path"),
			MetadataPath:   v.GetString("model.metadata_path"),
			LibraryPath:    v.GetString("model.library_path"),
			IntraOpThreads: v.GetInt("model.intra_op_threads"),
			InterOpThreads: v.GetInt("model.inter_op_threads"),
		},
		Assets: AssetsConfig{
			Dir: v.GetString("assets.dir"),
		},
		Telegram: TelegramConfig{
			Token: v.GetString("telegram.token"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Model.IntraOpThreads < 0 || c.Model.InterOpThreads < 0 {
		return errors.New("model thread counts must not be negative")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
