// Package config provides layered configuration loading for the trawl
// daemon.
//
// Configuration merges weakest-to-strongest: built-in defaults, then
// JSON file layers in the order added, then TRAWL_-prefixed environment
// variables. The same defaults-then-overrides model the daemon applies
// to resource files applies to its own configuration.
//
// # Core Components
//
// Config: the full daemon configuration containing service identity
// (name, subject prefix), NATS connection details, preprocessor
// settings, the bootstrap file, and metrics/health endpoint ports.
//
// Loader: loads configuration with layer merging and environment
// overrides, parsing duration strings (e.g. "2s") into time.Duration.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("/etc/trawl/config.json")
//	loader.AddLayer("~/.config/trawl/config.json") // Overrides system file
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Overrides
//
// Selected fields can be overridden without a file, e.g. TRAWL_NATS_URL,
// TRAWL_SUBJECT_PREFIX, TRAWL_PREPROCESSOR, TRAWL_NO_PREPROCESS,
// TRAWL_BOOTSTRAP_FILE. Overrides apply after all file layers.
//
// Secrets (password, token) are redacted by Config.String for safe
// logging.
package config
