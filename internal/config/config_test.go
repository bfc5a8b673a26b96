package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "models/resnet18_best.onnx", cfg.Model.Path)
	assert.Equal(t, "assets", cfg.Assets.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Telegram.Token)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RICE_MODEL_PATH", "/srv/resnet18.onnx")
	t.Setenv("RICE_LOGGING_FORMAT", "json")
	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/srv/resnet18.onnx", cfg.Model.Path)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
}

func TestLoadPrefixedPortWins(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RICE_SERVER_PORT", "7070")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
server:
  port: 8181
  max_upload_mb: 4
model:
  path: weights/leaf.onnx
  metadata_path: weights/leaf.json
  intra_op_threads: 2
assets:
  dir: static/diseases
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.MaxUploadMB)
	assert.Equal(t, "weights/leaf.onnx", cfg.Model.Path)
	assert.Equal(t, "weights/leaf.json", cfg.Model.MetadataPath)
	assert.Equal(t, 2, cfg.Model.IntraOpThreads)
	assert.Equal(t, "static/diseases", cfg.Assets.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080, MaxUploadMB: 10},
			Model:   ModelConfig{Path: "m.onnx"},
			Logging: LoggingConfig{Level: "info", Format: "console"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"no model":   func(c *Config) { c.Model.Path = "" },
		"zero port":  func(c *Config) { c.Server.Port = 0 },
		"huge port":  func(c *Config) { c.Server.Port = 70000 },
		"no upload":  func(c *Config) { c.Server.MaxUploadMB = 0 },
		"threads":    func(c *Config) { c.Model.IntraOpThreads = -1 },
		"bad level":  func(c *Config) { c.Logging.Level = "loud" },
		"bad format": func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "class", "Healthy")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"class":"Healthy"`)

	_, err = NewLogger(LoggingConfig{Level: "info", Format: "xml"}, &buf)
	assert.Error(t, err)
	_, err = NewLogger(LoggingConfig{Level: "chatty"}, &buf)
	assert.Error(t, err)
}
