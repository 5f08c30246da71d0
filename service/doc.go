// Package service hosts the daemon's bus surface. It wires the resource
// table to NATS request/reply subjects, publishes change events, and
// manages the service lifecycle with periodic health checks.
//
// # Subjects
//
// All subjects hang off a configurable prefix (default "trawl"):
//
//	<prefix>.cmd.load          load a file, insert-if-absent
//	<prefix>.cmd.load_cpp      load with explicit preprocessor
//	<prefix>.cmd.merge         merge a file, overwrite existing
//	<prefix>.cmd.merge_cpp     merge with explicit preprocessor
//	<prefix>.cmd.set           set one resource
//	<prefix>.cmd.add           add one resource, never overwrite
//	<prefix>.cmd.remove_one    remove one resource, return the pair
//	<prefix>.cmd.remove_all    clear the table
//	<prefix>.query.match       substring query, rendered listing
//	<prefix>.query.get         single value lookup
//	<prefix>.query.resources   full table snapshot
//
// Every mutation that observably changes the table publishes an empty
// message on <prefix>.event.resources_changed. Subscribers re-query; the
// event carries no payload.
//
// # Lifecycle
//
// BaseService provides the Stopped/Starting/Running/Stopping state
// machine, a health check loop, and graceful shutdown shared by the
// daemon. ResourceService embeds it and adds the subject handlers.
package service
