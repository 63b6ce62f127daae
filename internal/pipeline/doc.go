// Package pipeline classifies and routes a single file.
//
// Process runs the stages in a fixed order: ignore lists, extension check, CAM
// detection, the safety gate, metadata resolution, language and quality
// scoring, the routing decision, and finally the move. Every run produces an
// Outcome; expected rejections are values, not errors. Outcomes other than
// ignored and planned are appended to the ledger, and a panic anywhere in the
// run becomes a failed outcome instead of taking down the producer goroutine.
package pipeline
