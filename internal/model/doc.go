// Package model defines the data structures shared across linkratio:
// per-page result records, failure records, and the run summary that
// result sinks persist.
package model
