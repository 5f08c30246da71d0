// Package errors provides standardized error handling patterns for trawl components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable by the caller), Invalid (bad input, do not
// retry), and Fatal (unrecoverable, stop processing).
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if !utf8.ValidString(out) {
//	    return errors.ErrInvalidEncoding
//	}
//
// Wrap errors with context for debugging:
//
//	if err := cmd.Run(); err != nil {
//	    return errors.WrapInvalid(err, "Preprocessor", "Run", "command execution")
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// This format enables consistent log parsing and debugging across the daemon.
// The Wrap family of functions applies this pattern while preserving error
// classification through the chain.
//
// # Failure Policy
//
// trawl builds no retries into its core: file-read, preprocessor, and
// encoding failures during Load/Merge are surfaced once, leave the resource
// table untouched, and are never fatal to the daemon. Classification exists
// so bus clients can decide whether repeating a call is worthwhile.
package errors
