package service

import "time"

// Subject suffixes for NATS request/reply. The full subject is the
// configured prefix joined with one of these, e.g. "trawl.cmd.load".
const (
	// File operations
	SuffixCmdLoad     = "cmd.load"      // Insert-if-absent load
	SuffixCmdLoadCpp  = "cmd.load_cpp"  // Load with explicit preprocessor
	SuffixCmdMerge    = "cmd.merge"     // Overwriting merge
	SuffixCmdMergeCpp = "cmd.merge_cpp" // Merge with explicit preprocessor

	// Single-resource mutations
	SuffixCmdSet       = "cmd.set"
	SuffixCmdAdd       = "cmd.add"
	SuffixCmdRemoveOne = "cmd.remove_one"
	SuffixCmdRemoveAll = "cmd.remove_all"

	// Queries
	SuffixQueryMatch     = "query.match"     // Substring match, rendered listing
	SuffixQueryGet       = "query.get"       // Single value lookup
	SuffixQueryResources = "query.resources" // Full table snapshot

	// Outbound event, empty payload
	SuffixEventResourcesChanged = "event.resources_changed"

	// Default timeout for request/reply operations
	DefaultRequestTimeout = 5 * time.Second
)

// Request types for NATS operations

// LoadRequest loads or merges a file with the daemon's default
// preprocessor settings
type LoadRequest struct {
	Path string `json:"path"`
	// NoPreprocess reads the file raw regardless of daemon defaults
	NoPreprocess bool `json:"no_preprocess,omitempty"`
}

// LoadCppRequest loads or merges a file through an explicit
// preprocessor invocation
type LoadCppRequest struct {
	Path    string `json:"path"`
	Command string `json:"command,omitempty"`
	// Args is whitespace-split before the file path. No quoting.
	Args string `json:"args,omitempty"`
}

// SetRequest sets or adds a single resource
type SetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RemoveRequest removes a single resource by key
type RemoveRequest struct {
	Key string `json:"key"`
}

// MatchRequest queries resources whose key contains the trimmed match
// string
type MatchRequest struct {
	Match string `json:"match"`
}

// GetRequest looks up a single resource value
type GetRequest struct {
	Key string `json:"key"`
}

// OpResponse is the generic response wrapper for all operations
type OpResponse struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}
