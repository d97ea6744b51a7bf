// Package notifications delivers user-facing conversion messages.
//
// The ntfy sink publishes to the topic configured in config.toml, the console
// sink echoes to the terminal, and both degrade to a no-op when disabled. The
// converter depends only on the single-method Service interface.
package notifications
