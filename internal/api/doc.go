// Package api defines the wire-format types exchanged with the daemon's HTTP
// API and a small client the CLI uses to call it.
//
// Payloads reuse the domain snapshot types (watcher.Status, cleanup.Status,
// store.Entry) directly so the server and the client cannot drift apart.
// Error responses are always {"error": "..."}; the client surfaces them as
// *Error carrying the HTTP status code.
package api
