package osutil

import (
	"log/slog"
	"os"
)

// Fatal is reserved for setup failures the run cannot proceed past
// (missing credentials, exhausted login retries, unreadable catalog).
// Per-item failures are logged and skipped instead.
func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
