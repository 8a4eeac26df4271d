// Package database provides SQLite-based storage for crawl run history.
//
// Each completed run is stored as one row in the runs table plus one
// row per page (and per failure) referencing it, so past runs can be
// listed and re-exported without re-crawling. The database lives under
// the XDG data directory by default and uses the pure-Go
// modernc.org/sqlite driver, so no cgo toolchain is required.
package database
