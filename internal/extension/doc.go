// Package extension adapts host events to the converter.
//
// A post-download event converts one episode. A context-menu request over a
// selection yields a "Convert to MP3" action only when the selection is fully
// downloaded and contains at least one OGG episode; invoking it converts the
// selection one episode at a time.
package extension
