// Package natsclient provides a robust NATS client with circuit breaker
// protection and automatic reconnection for the trawl daemon and its
// command-line client.
//
// NATS is trawl's inter-process bus: every daemon operation is a
// request/reply subject and the resources-changed signal is a plain
// publish. The package wraps the standard NATS Go client with the
// reliability features a long-running desktop daemon needs.
//
// # Core Features
//
// Circuit Breaker Pattern: Prevents hammering a dead broker by failing
// fast after a threshold of consecutive failures (default: 5). The
// circuit opens to block further attempts, then tests the connection
// again with exponential backoff.
//
// Connection Lifecycle Management: Handles connection states through the
// lifecycle: Disconnected → Connecting → Connected → Reconnecting →
// Connected. Disconnect, reconnect, and health-change callbacks let the
// daemon surface bus state in health and metrics.
//
// Graceful Shutdown: Close drains pending subscriptions with a bounded
// timeout and clears credentials from memory.
//
// # Basic Usage
//
// Creating and connecting to NATS:
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithClientName("trawld"),
//	    natsclient.WithMaxReconnects(-1),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	// Publish the change event
//	err = client.Publish("trawl.event.resources_changed", nil)
//
//	// Serve an operation
//	err = client.Subscribe("trawl.query.get", func(msg *nats.Msg) {
//	    _ = msg.Respond(reply)
//	})
//
//	// Round trip from the control client
//	msg, err := client.Request(ctx, "trawl.query.get", payload)
//
// # Testing
//
// TestClient (test_client.go) starts a disposable NATS server in a
// container and hands back a connected Client; integration tests are
// guarded by testing.Short.
package natsclient
