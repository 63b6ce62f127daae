// Package daemon coordinates the long-running filearr process.
//
// It wires configuration, the ledger store, the classification pipeline, the
// inbox watcher, and the cleanup manager into a single lifecycle with
// flock-based locking to prevent multiple instances. The watcher and the
// cleanup job share one in-flight set so a file is never classified by both
// at once. The HTTP API and the Prometheus endpoint are served from here.
//
// Keep orchestration logic here: classification steps live in their own
// packages while the daemon focuses on startup, shutdown, and host controls.
package daemon
