// Package preflight provides readiness checks for the directories, binaries,
// and credentials filearr depends on.
//
// The daemon includes the results in its status payload and the CLI status
// command renders them. Checks never modify anything; a failed check is
// reported, not fixed.
package preflight
