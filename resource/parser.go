package resource

import (
	"log/slog"
	"strings"
)

// ValidKey reports whether key is a valid resource name: non-empty and
// every character ASCII alphanumeric or one of '-', '.', '_'.
func ValidKey(key string) bool {
	if len(key) == 0 {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '.' || c == '_':
		default:
			return false
		}
	}
	return true
}

// Parser turns raw preprocessed config text into validated resource entries.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse splits text into lines and collects "<key> : <value>" entries.
// Only the first ':' per line is the delimiter; lines without one are
// dropped. Keys failing ValidKey are logged and skipped individually, so a
// bad line never aborts the rest of the file. If the same valid key appears
// on multiple lines, the later line wins.
func (p *Parser) Parse(text string) map[string]string {
	parsed := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if !ValidKey(key) {
			p.logger.Warn("Skipping invalid resource key", "key", key)
			continue
		}
		parsed[key] = strings.TrimSpace(value)
	}
	return parsed
}
