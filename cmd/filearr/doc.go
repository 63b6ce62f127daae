// Command filearr runs the video inbox classifier daemon and talks to it over
// its HTTP API.
//
// `filearr run` hosts the daemon in the foreground. The other commands are
// thin clients: status, watch, cleanup, logs, ignore, and config show call
// the running daemon at paths.api_bind. `filearr classify` is the exception;
// it builds the pipeline locally and reports what would happen to a file
// without moving it.
package main
