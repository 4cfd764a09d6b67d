// Package logging builds the slog loggers used across respack.
//
// Two formats are supported: "console", a single line per record with the
// component in front of the message and colour on terminals, and "json".
package logging
