// Package services defines shared helpers consumed by the converter, the
// library store, and the CLI host.
//
// Key responsibilities:
//   - Context helpers that stamp episode IDs, host operations, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures carry a
//     consistent category that log output can report as event_type.
package services
