// Package health provides health monitoring for the resource daemon with
// thread-safe status tracking and aggregation.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// A degraded bus connection (reconnecting) is reported differently from a
// lost one, so probes can distinguish "wait" from "restart".
//
// # Core Components
//
// Status: individual component health state containing status level,
// descriptive message, timestamp, and optional sub-statuses.
//
// Monitor: thread-safe registry of per-component statuses with aggregation
// into a single daemon-level status.
//
// Server: HTTP endpoint serving the aggregate status as JSON on /healthz,
// answering 503 when the aggregate is unhealthy.
package health
