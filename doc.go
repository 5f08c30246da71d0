// Package trawl is a resource configuration daemon for the desktop:
// a mutable table of named text values served over the NATS bus.
//
// # Overview
//
// The daemon (cmd/trawld) loads resource files in the classic
// "key: value" line format, optionally piped through a C preprocessor,
// and keeps the merged result in memory. Clients query single values,
// substring matches, or the whole table, and mutate it one entry or one
// file at a time. Every observable change is announced with an empty
// event message so subscribers can re-query.
//
//	┌─────────────────────────────────────┐
//	│          cmd/trawld                 │  Flags, config, signals
//	└─────────────────────────────────────┘
//	           ↓ wires
//	┌─────────────────────────────────────┐
//	│       service.ResourceService       │  Request/reply handlers,
//	│   (cmd.*, query.*, event.*)         │  change events
//	└─────────────────────────────────────┘
//	           ↓ owns
//	┌─────────────────────────────────────┐
//	│         resource.Store              │  Table, parser,
//	│   (load, merge, set, query)         │  preprocessor
//	└─────────────────────────────────────┘
//
// # Packages
//
//   - resource: the table itself, the line parser, and the preprocessor
//   - service: the bus surface and service lifecycle
//   - natsclient: resilient NATS connection with circuit breaker
//   - config: layered JSON configuration with environment overrides
//   - metric: Prometheus metrics and the /metrics endpoint
//   - health: component health tracking and the /healthz endpoint
//   - errors: error classification (transient, invalid, fatal)
//
// cmd/trawlmsg is the companion command-line client; every daemon
// operation is reachable as a subcommand.
package trawl
