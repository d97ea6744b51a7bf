// Package main hosts the ogg2mp3 CLI.
//
// The CLI stands in for a podcast client: it keeps a small episode library,
// raises the same events a host would (download finished, context menu on a
// selection) and routes them through the extension package. Configuration,
// logging, the library lock and notification wiring are resolved once in the
// command context so subcommands stay declarative.
package main
