// Package stores persists oxbuild's build history. It provides a
// SQLite-backed store with WAL mode and embedded schema migrations,
// recording one row per build attempt so tooling can answer "what was
// built, when, and where did it land".
package stores
