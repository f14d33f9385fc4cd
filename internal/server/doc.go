// Package server implements the HTTP and WebSocket surface of coinchat.
//
// The implementation is organized into specialized files for the hub,
// clients, socket events, origin checks, routing, and HTTP handlers. All
// handles (hub, services, origin policy) are injected through Server; the
// package holds no process-wide state.
package server
