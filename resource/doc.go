// Package resource implements the trawl resource table and its ingestion
// pipeline: config text parsing, preprocessor invocation, and the store
// holding the authoritative key/value mapping.
//
// # Overview
//
// A resource is a named text configuration value. The Store owns the only
// copy of the table for the daemon's lifetime; bus clients mutate and query
// it through the service layer. Two ingestion modes exist:
//
//   - Load: non-destructive, keys already present are retained. Models
//     cascading "defaults then overrides" config layering.
//   - Merge: destructive, parsed entries overwrite existing keys.
//
// Config files are plain text, one entry per line:
//
//	<key> : <value>
//
// Only the first ':' per line delimits key from value; both sides are
// trimmed; lines without ':' are ignored. Comment handling is delegated to
// the external preprocessor (cpp by default), which is run over the file
// before parsing unless preprocessing is disabled.
//
// # Concurrency
//
// Store operations are safe for concurrent use. Every read-decide-write
// sequence executes under one exclusive critical section; pure reads share
// a read lock. File reads and preprocessor execution happen before the
// lock is taken, so two slow ingestions for different files can overlap
// while only the in-memory table update is serialized.
//
// # Change notification
//
// A mutation that observably changes the table raises exactly one change
// event through the configured Notifier, after the change is visible; a
// mutation that changes nothing raises none. Delivery is best-effort and
// never affects the mutation's outcome.
package resource
