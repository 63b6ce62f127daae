// Package notifications announces classification events over ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled before
// emitting. Per-event switches in the config silence individual event kinds.
package notifications
