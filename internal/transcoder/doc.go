// Package transcoder resolves which external audio transcoder is installed
// and builds its command line.
//
// Exactly two executables are supported, avconv and ffmpeg, which accept the
// same arguments. Resolve is called once when the extension is constructed;
// the returned Transcoder is immutable and safe to share.
package transcoder
