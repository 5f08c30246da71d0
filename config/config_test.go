package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "trawld", cfg.Service.Name)
	assert.Equal(t, "trawl", cfg.Service.SubjectPrefix)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
	assert.Equal(t, "cpp", cfg.Preprocessor.Command)
	assert.False(t, cfg.Preprocessor.Disabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfigFile(t, "trawl.json", `{
		"service": {"subject_prefix": "desk.trawl"},
		"nats": {"url": "nats://10.0.0.5:4222", "reconnect_wait": "5s"},
		"preprocessor": {"command": "/usr/bin/cpp", "args": "-P -traditional-cpp"},
		"bootstrap": {"file": "/etc/trawl/defaults.resources"}
	}`)

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "desk.trawl", cfg.Service.SubjectPrefix)
	assert.Equal(t, "nats://10.0.0.5:4222", cfg.NATS.URL)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, "/usr/bin/cpp", cfg.Preprocessor.Command)
	assert.Equal(t, "-P -traditional-cpp", cfg.Preprocessor.Args)
	assert.Equal(t, "/etc/trawl/defaults.resources", cfg.Bootstrap.File)
	// Unset fields keep defaults
	assert.Equal(t, "trawld", cfg.Service.Name)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
}

func TestLoader_Layers(t *testing.T) {
	base := writeConfigFile(t, "base.json", `{
		"preprocessor": {"command": "cpp", "args": "-P"},
		"metrics": {"port": 9090}
	}`)
	override := writeConfigFile(t, "override.json", `{
		"preprocessor": {"command": "mcpp"}
	}`)

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)

	cfg, err := loader.Load()
	require.NoError(t, err)

	// Later layer wins; sibling keys from the earlier layer survive
	assert.Equal(t, "mcpp", cfg.Preprocessor.Command)
	assert.Equal(t, "-P", cfg.Preprocessor.Args)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().LoadFile("/nonexistent/trawl.json")
	assert.Error(t, err)
}

func TestLoader_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, "bad.json", `{"service": `)
	_, err := NewLoader().LoadFile(path)
	assert.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("TRAWL_NATS_URL", "nats://from-env:4222")
	t.Setenv("TRAWL_SUBJECT_PREFIX", "envprefix")
	t.Setenv("TRAWL_NO_PREPROCESS", "true")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "nats://from-env:4222", cfg.NATS.URL)
	assert.Equal(t, "envprefix", cfg.Service.SubjectPrefix)
	assert.True(t, cfg.Preprocessor.Disabled)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"missing prefix", func(c *Config) { c.Service.SubjectPrefix = "" }, "subject_prefix"},
		{"bad prefix", func(c *Config) { c.Service.SubjectPrefix = "has space" }, "not valid"},
		{"missing url", func(c *Config) { c.NATS.URL = "" }, "nats.url"},
		{"tls without cert", func(c *Config) { c.NATS.TLS.Enabled = true }, "cert_file"},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = 70000 }, "metrics.port"},
		{"bad health port", func(c *Config) { c.Health.Port = -1 }, "health.port"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Defaults()
			test.mutate(cfg)
			err := cfg.Validate()
			if test.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.wantErr)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := Defaults()
	clone := cfg.Clone()
	clone.Service.SubjectPrefix = "changed"

	assert.Equal(t, "trawl", cfg.Service.SubjectPrefix)
}

func TestConfig_StringRedactsCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.NATS.Password = "hunter2"
	cfg.NATS.Token = "s3cret"

	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "s3cret")
	assert.Contains(t, s, "[REDACTED]")
}
