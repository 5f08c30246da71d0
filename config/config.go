package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"
)

// Config represents the complete daemon configuration
type Config struct {
	Service      ServiceConfig      `json:"service"`
	NATS         NATSConfig         `json:"nats"`
	Preprocessor PreprocessorConfig `json:"preprocessor"`
	Bootstrap    BootstrapConfig    `json:"bootstrap"`
	Metrics      MetricsConfig      `json:"metrics"`
	Health       HealthConfig       `json:"health"`
}

// ServiceConfig defines the daemon's bus identity
type ServiceConfig struct {
	// Name identifies this daemon instance in logs and on the NATS
	// connection.
	Name string `json:"name"`
	// SubjectPrefix is the root of every bus subject the daemon serves,
	// e.g. "trawl" yields "trawl.cmd.load". The old and new daemon
	// variants differed only in bus name; this field unifies them.
	SubjectPrefix string `json:"subject_prefix"`
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URL           string        `json:"url"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
	TLS           NATSTLSConfig `json:"tls,omitempty"`
}

// NATSTLSConfig for secure NATS connections
type NATSTLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertFile string `json:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty"`
	CAFile   string `json:"ca_file,omitempty"`
}

// PreprocessorConfig defines the external config-text preprocessor
type PreprocessorConfig struct {
	// Command is the default preprocessor executable; bus calls may
	// override it per file. Empty falls back to "cpp".
	Command string `json:"command,omitempty"`
	// Disabled turns off preprocessing globally; files are read raw.
	Disabled bool `json:"disabled,omitempty"`
	// Args is a default argument string, whitespace-split before the
	// file path. No quoting support.
	Args string `json:"args,omitempty"`
}

// BootstrapConfig defines the optional one-time startup ingestion
type BootstrapConfig struct {
	// File is loaded once during initialization. Empty skips bootstrap.
	File string `json:"file,omitempty"`
	// Merge ingests the bootstrap file destructively instead of via Load.
	Merge bool `json:"merge,omitempty"`
}

// MetricsConfig defines the Prometheus metrics endpoint
type MetricsConfig struct {
	Port int    `json:"port,omitempty"` // 0 disables the endpoint
	Path string `json:"path,omitempty"`
}

// HealthConfig defines the health check endpoint
type HealthConfig struct {
	Port int `json:"port,omitempty"` // 0 disables the endpoint
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Service.SubjectPrefix == "" {
		return errors.New("service.subject_prefix is required")
	}
	if !isValidSubjectPart(c.Service.SubjectPrefix) {
		return fmt.Errorf(
			"service.subject_prefix %q is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.Service.SubjectPrefix,
		)
	}

	if c.NATS.URL == "" {
		return errors.New("nats.url is required")
	}

	if c.NATS.TLS.Enabled {
		if c.NATS.TLS.CertFile == "" || c.NATS.TLS.KeyFile == "" {
			return errors.New("nats.tls.cert_file and nats.tls.key_file are required when TLS is enabled")
		}
		if _, err := os.Stat(c.NATS.TLS.CertFile); err != nil {
			return fmt.Errorf("nats.tls.cert_file: %w", err)
		}
		if _, err := os.Stat(c.NATS.TLS.KeyFile); err != nil {
			return fmt.Errorf("nats.tls.key_file: %w", err)
		}
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port out of range: %d", c.Metrics.Port)
	}
	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port out of range: %d", c.Health.Port)
	}

	return nil
}

// isValidSubjectPart checks if a string is valid for use in NATS subjects.
func isValidSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// String returns a JSON representation of the config with credentials redacted
func (c *Config) String() string {
	clone := c.Clone()
	if clone.NATS.Password != "" {
		clone.NATS.Password = "[REDACTED]"
	}
	if clone.NATS.Token != "" {
		clone.NATS.Token = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(clone, "", "  ")
	return string(data)
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  "TRAWL",
	}
}

// AddLayer adds a configuration file layer; later layers override earlier ones
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	cfg := l.getDefaults()

	for _, path := range l.layers {
		rawConfig, err := l.loadRawJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Defaults returns the built-in default configuration
func Defaults() *Config {
	return NewLoader().getDefaults()
}

func (l *Loader) getDefaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:          "trawld",
			SubjectPrefix: "trawl",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Preprocessor: PreprocessorConfig{
			Command: "cpp",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}

// loadRawJSON loads configuration from a JSON file as a map
func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return nil, err
	}

	l.parseDurations(rawConfig)

	return rawConfig, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	mergedMap := deepMergeMaps(baseMap, override)

	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		result[k] = v
	}

	return result
}

// parseDurations converts duration strings to nanoseconds for json unmarshaling
func (l *Loader) parseDurations(data map[string]any) {
	if nats, ok := data["nats"].(map[string]any); ok {
		if wait, ok := nats["reconnect_wait"].(string); ok {
			if d, err := time.ParseDuration(wait); err == nil {
				nats["reconnect_wait"] = d.Nanoseconds()
			}
		}
	}
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(l.envPrefix + "_SERVICE_NAME"); val != "" {
		cfg.Service.Name = val
	}
	if val := os.Getenv(l.envPrefix + "_SUBJECT_PREFIX"); val != "" {
		cfg.Service.SubjectPrefix = val
	}

	if val := os.Getenv(l.envPrefix + "_NATS_URL"); val != "" {
		cfg.NATS.URL = val
	}
	if val := os.Getenv(l.envPrefix + "_NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := os.Getenv(l.envPrefix + "_NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := os.Getenv(l.envPrefix + "_NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}

	if val := os.Getenv(l.envPrefix + "_PREPROCESSOR"); val != "" {
		cfg.Preprocessor.Command = val
	}
	if val := os.Getenv(l.envPrefix + "_NO_PREPROCESS"); val != "" {
		cfg.Preprocessor.Disabled = strings.EqualFold(val, "true") || val == "1"
	}

	if val := os.Getenv(l.envPrefix + "_BOOTSTRAP_FILE"); val != "" {
		cfg.Bootstrap.File = val
	}
}

// maxConfigFileSize bounds config reads; a daemon config has no business
// being larger than this.
const maxConfigFileSize = 1 << 20

// safeReadFile reads a config file after checking it is a regular file of
// sane size.
func safeReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}
	return os.ReadFile(path)
}
