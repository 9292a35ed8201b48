// Package logging constructs the slog loggers used throughout mixtape and
// provides thin attribute helpers so call sites stay terse. Console output
// targets humans tailing the log; JSON output targets collectors.
package logging
