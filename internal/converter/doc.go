// Package converter runs the OGG to MP3 conversion for a single episode.
//
// Convert validates the media type, derives the destination path, runs the
// resolved transcoder synchronously, and only then mutates the filesystem:
// the episode is renamed through the host and the source is removed. Failures
// are logged and reported through the Notifier; they never propagate to the
// caller, so batches keep going after a bad episode.
package converter
