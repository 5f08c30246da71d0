package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Debug           bool
	NATSURL         string
	LoadFile        string
	Merge           bool
	CppCommand      string
	NoCpp           bool
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("TRAWL_CONFIG", ""),
		"Path to configuration file, optional (env: TRAWL_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("TRAWL_CONFIG", ""),
		"Path to configuration file, optional (env: TRAWL_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("TRAWL_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: TRAWL_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("TRAWL_LOG_FORMAT", "json"),
		"Log format: json, text (env: TRAWL_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("TRAWL_DEBUG", false),
		"Enable debug mode (env: TRAWL_DEBUG)")

	flag.StringVar(&cfg.NATSURL, "nats-url", "",
		"NATS server URL, overrides config file (env: TRAWL_NATS_URL)")

	flag.StringVar(&cfg.LoadFile, "load",
		getEnv("TRAWL_BOOTSTRAP_FILE", ""),
		"Resource file to load at startup (env: TRAWL_BOOTSTRAP_FILE)")

	flag.BoolVar(&cfg.Merge, "merge", false,
		"Merge the startup file instead of loading it, overwriting existing keys")

	flag.StringVar(&cfg.CppCommand, "cpp",
		getEnv("TRAWL_PREPROCESSOR", ""),
		"Preprocessor executable for resource files (env: TRAWL_PREPROCESSOR)")

	flag.BoolVar(&cfg.NoCpp, "nocpp",
		getEnvBool("TRAWL_NO_PREPROCESS", false),
		"Disable preprocessing, read resource files raw (env: TRAWL_NO_PREPROCESS)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("TRAWL_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Graceful shutdown timeout (env: TRAWL_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printDetailedHelp

	flag.Parse()

	// Override log level if debug is set
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.Merge && cfg.LoadFile == "" {
		return fmt.Errorf("--merge requires --load")
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Resource Configuration Daemon

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run with a startup resource file
  %s --load ~/.config/resources.conf

  # Merge the startup file over previously persisted values
  %s --load ~/.config/resources.conf --merge

  # Run without preprocessing
  %s --nocpp --load resources.conf

  # Run with environment variables
  export TRAWL_NATS_URL=nats://broker:4222
  export TRAWL_LOG_LEVEL=debug
  %s

  # Validate configuration only
  %s --config /etc/trawl/config.json --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// contains reports whether slice holds item
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
