// Package library is the host-side episode store ogg2mp3 drives the
// converter with.
//
// Episodes live in a SQLite database (pure Go driver) with their title,
// media type, file location, and download state. Episode values implement
// the converter's capability interface; RenameFile goes through the database
// so the stored path and the file on disk move together. Lock wraps a file
// lock so only one process converts episodes from a library at a time.
package library
