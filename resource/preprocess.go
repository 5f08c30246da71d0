package resource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/sandptel/trawl/errors"
)

// DefaultPreprocessorCommand is the fallback preprocessor executable used
// when neither the daemon configuration nor the call supplies one.
const DefaultPreprocessorCommand = "cpp"

// FileOptions control how a single Load/Merge call obtains config text.
type FileOptions struct {
	// NoPreprocess reads the file's raw bytes instead of running the
	// preprocessor over it.
	NoPreprocess bool
	// Command overrides the configured preprocessor executable for this
	// call. Empty means use the configured default.
	Command string
	// Args is an extra argument string for the preprocessor, split on
	// whitespace. Quoting is not supported: an argument containing a
	// space cannot be passed as a single token.
	Args string
}

// PreprocessorOption is a functional option for configuring the Preprocessor
type PreprocessorOption func(*Preprocessor)

// WithPreprocessorLogger sets a custom logger for the preprocessor
func WithPreprocessorLogger(logger *slog.Logger) PreprocessorOption {
	return func(p *Preprocessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPreprocessingDisabled globally disables preprocessor execution; every
// Run reads files raw regardless of per-call options.
func WithPreprocessingDisabled(disabled bool) PreprocessorOption {
	return func(p *Preprocessor) {
		p.disabled = disabled
	}
}

// Preprocessor produces config text from a file path, optionally via an
// external text-preprocessing command (cpp-style macro expansion).
type Preprocessor struct {
	command  string
	disabled bool
	logger   *slog.Logger
}

// NewPreprocessor creates a preprocessor with the given default command.
// An empty command falls back to DefaultPreprocessorCommand.
func NewPreprocessor(command string, opts ...PreprocessorOption) *Preprocessor {
	if command == "" {
		command = DefaultPreprocessorCommand
	}
	p := &Preprocessor{
		command: command,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Command returns the configured default preprocessor executable
func (p *Preprocessor) Command() string {
	return p.command
}

// Run returns the config text for path. With preprocessing skipped (per
// call or globally) the file's raw bytes are returned; otherwise the
// preprocessor executable runs with the split extra arguments followed by
// the file path and its standard output is captured. All failures are
// terminal for the call: there is no partial result.
func (p *Preprocessor) Run(ctx context.Context, path string, opts FileOptions) (string, error) {
	if _, err := os.Stat(path); err != nil {
		p.logger.Error("Config file unreadable", "path", path, "error", err)
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrFileRead, err),
			"Preprocessor", "Run", "stat config file")
	}

	if opts.NoPreprocess || p.disabled {
		return p.readRaw(path)
	}

	command := opts.Command
	if command == "" {
		command = p.command
	}

	args := splitArgs(opts.Args)
	args = append(args, path)
	p.logger.Debug("Running preprocessor", "command", command, "args", args)

	out, err := exec.CommandContext(ctx, command, args...).Output()
	if err != nil {
		p.logger.Error("Preprocessor execution failed",
			"command", command, "path", path, "error", err)
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %s: %v", errors.ErrPreprocessFailed, command, err),
			"Preprocessor", "Run", "command execution")
	}

	text := string(out)
	if !utf8.ValidString(text) {
		p.logger.Error("Preprocessor output is not valid UTF-8",
			"command", command, "path", path)
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: output of %s", errors.ErrInvalidEncoding, command),
			"Preprocessor", "Run", "output decoding")
	}

	p.logger.Debug("File preprocessed successfully", "path", path, "bytes", len(text))
	return text, nil
}

func (p *Preprocessor) readRaw(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Error("Config file read failed", "path", path, "error", err)
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrFileRead, err),
			"Preprocessor", "readRaw", "reading config file")
	}
	text := string(data)
	if !utf8.ValidString(text) {
		p.logger.Error("Config file is not valid UTF-8", "path", path)
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidEncoding, path),
			"Preprocessor", "readRaw", "decoding config file")
	}
	p.logger.Debug("Config file read successfully", "path", path, "bytes", len(text))
	return text, nil
}

// splitArgs naively splits an argument string on whitespace. Arguments
// containing spaces cannot be expressed; this matches the historical
// behavior of the daemon's bus interface.
func splitArgs(argString string) []string {
	return strings.Fields(argString)
}
