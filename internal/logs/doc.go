// Package logs pages through the daemon log file for the API and CLI.
//
// Offsets are byte positions just past the last complete line returned, so a
// line still being written is never split. An offset beyond the end of the
// file means the log was rotated and reading restarts at the beginning.
package logs
