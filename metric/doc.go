// Package metric provides Prometheus-based metrics collection and the
// HTTP endpoint for trawl daemon observability.
//
// The package offers a centralized registry managing the daemon's core
// metrics (bus operation counts and latency, resource table size,
// change-event delivery, NATS connection state) plus registration for
// additional collectors, and an HTTP server exposing everything in
// Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: daemon-level metrics automatically registered (Metrics type)
//  2. Registry: extensible registration for extra collectors (MetricsRegistry type)
//  3. HTTP Server: the /metrics endpoint (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record daemon metrics
//	core := registry.CoreMetrics()
//	core.RecordOperation("load", "ok")
//	core.RecordOperationDuration("load", elapsed)
//	core.RecordResourceCount(42)
//	core.RecordNATSStatus(true)
//
// All metrics live under the "trawl" namespace.
package metric
