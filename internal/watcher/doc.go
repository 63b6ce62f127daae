// Package watcher feeds the classification pipeline from the input directory.
//
// Two producers run while the watcher is active: an fsnotify loop that
// classifies files as they appear, after a settle delay, and a rescan loop
// that walks the whole tree at start-up and on a fixed interval. The rescan
// consults the ledger so files with a recorded outcome are not classified
// again, and both producers share an in-flight set so a file is never handled
// by both at once.
package watcher
