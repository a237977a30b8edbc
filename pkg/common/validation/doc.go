// Package validation provides common validation utilities for configuration
// parameters across the gosched library.
//
// Pool and poller constructors use these helpers so that every rejected
// setting surfaces as an errors.ValidationError with a consistent message.
package validation
