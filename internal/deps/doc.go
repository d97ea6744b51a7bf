// Package deps locates the external executables ogg2mp3 shells out to.
//
// CommandResolver is the dependency-resolution facility handed to the
// extension at construction time; CheckBinaries backs the status command.
package deps
