package decision

import (
	"path/filepath"
	"strings"
)

var scanExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".m4v": {}, ".ts": {},
}

// .m4v and .ts are picked up by scans but not classified.
var processExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {},
}

// Scannable reports whether path has an extension the watcher and cleanup
// walkers collect.
func Scannable(path string) bool {
	_, ok := scanExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Processable reports whether path has an extension the pipeline classifies.
func Processable(path string) bool {
	_, ok := processExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
