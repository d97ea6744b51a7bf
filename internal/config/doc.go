// Package config loads, normalizes, and validates ogg2mp3 configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the OGG2MP3_NTFY_TOPIC environment
// fallback. The [extension] section carries the single host-owned toggle,
// context_menu, which the extension reads through ContextMenuEnabled.
package config
