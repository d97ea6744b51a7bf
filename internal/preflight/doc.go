// Package preflight provides readiness checks for the transcoder binaries,
// the data and log directories, and the ntfy endpoint.
//
// The CLI "ogg2mp3 status" command renders RunAll and exits non-zero when any
// check in it fails.
package preflight
