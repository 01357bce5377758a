// Package httpserver exposes the calendar over HTTP: a JSON REST API under
// /api/events, a health probe at /api/health, a websocket duplex endpoint
// at /ws, and a server-sent-events mirror at /api/events/stream. All push
// surfaces funnel through the hub so broadcast semantics stay identical
// across transports.
package httpserver
