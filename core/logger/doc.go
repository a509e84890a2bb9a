// Package logger is a standardized event logging framework for the
// interpreter. Every command the engine resolves produces events that are
// recorded as newline delimited JSON and can later be summarized into a
// Report.
package logger
