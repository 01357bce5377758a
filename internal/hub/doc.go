// Package hub implements the real-time core of calhub: the subscription
// registry, the broadcast router, and the connection lifecycle.
//
// # Overview
//
// Every live duplex client is represented by a Conn handle. Subscription
// state (the client's declared date window and optional CEL event filter)
// lives in the Registry, keyed by handle, never on the transport object.
// The Router fans event mutations out to the connections whose window
// contains the affected date; the Lifecycle funnels every open, close, and
// inbound message through one place so presence broadcasts fire exactly once
// per connect and disconnect.
//
// A single mutex serializes all registry mutation and all delivery, so two
// successive broadcasts can never interleave on one connection. A send
// failure never aborts a broadcast pass; the failed connection is closed
// after the pass and its removal triggers a fresh presence broadcast.
//
// Example:
//
//	reg := hub.NewRegistry()
//	router := hub.NewRouter(reg, logger)
//	lc := hub.NewLifecycle(reg, router, store, logger)
//
//	c := hub.NewConn(sink)
//	lc.OnOpen(c)                    // registers + presence broadcast
//	lc.OnMessage(ctx, c, raw)       // dispatch one inbound envelope
//	lc.OnClose(c)                   // idempotent teardown
package hub
