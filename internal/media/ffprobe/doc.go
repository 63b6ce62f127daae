// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties and tags
//   - Prober: the inspection seam used by the language and quality scorers
//
// Command is the production Prober; it executes ffprobe and decodes the
// response. Helper methods on Result select the first video or audio stream
// and resolve bitrates with a container fallback.
package ffprobe
