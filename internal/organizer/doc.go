// Package organizer moves classified files into the library.
//
// A move never overwrites an existing destination. Renames fall back to a
// verified copy when source and destination live on different filesystems,
// and the configured ownership and modes are applied afterwards. Failures are
// logged with a hint and reported to the caller as a false result so the
// pipeline can record them and retry on the next rescan.
package organizer
