// Package intel bridges an editor's event stream and a local
// code-intelligence service.
//
// The package turns raw edit, selection, hover, and activation events into
// well-formed service requests and turns the asynchronous JSON responses
// back into transient UI state: completion lists, signature popups, hover
// panels, and status text. Results that have gone stale by the time they
// arrive are discarded rather than shown against the wrong cursor position.
//
// # Architecture
//
// The package is organized around these components:
//
//   - Client: HTTP transport to the local service
//   - Dispatcher: routes editor events to registered observers
//   - Recorder: fire-and-forget event records to the service
//   - Watcher: classifies edits and drives completions and signatures
//   - Completions: location-stamped completion cache with one-shot consumption
//   - Signatures: function-signature popups with last-to-acquire-wins state
//   - Hover: point-triggered symbol panels
//   - Status: service status polling for the status bar
//
// # Concurrency
//
// Editor events arrive on a single UI thread that must never block. Every
// request/response round trip runs on a Deferrer (an unordered background
// queue); the only suspension point is the Client call inside each fetch
// routine. Each component guards its own state with its own lock, held only
// for the critical section and never across a network call.
//
// Two acquisition disciplines are used. Completions block on its lock in the
// consume path because correctness requires the read. Signatures uses
// non-blocking TryLock in its render, hide, and rerender paths: losing the
// race is an acceptable drop, since a newer request is almost certainly
// already in flight. The TryLock calls must not be upgraded to blocking
// acquisition; that would change latency behavior materially.
//
// No request is cancelled once queued. Staleness is handled after the fact:
// Completions re-checks the cached location at consumption time, Signatures
// simply lets the last response to acquire the lock win, and Hover and
// Status carry no staleness guard at all (a known, accepted inconsistency).
//
// # Integration
//
// The host editor supplies a View implementation (buffer, selection, and
// popup/status surfaces), a LinkOpener for popup navigation, and drives the
// Dispatcher from its event callbacks. See package app for wiring.
package intel
