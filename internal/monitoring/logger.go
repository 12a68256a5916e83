// Package monitoring holds the process-wide diagnostic logger used by the
// service layer. The TUI mutes it while the alternate screen is active.
package monitoring

import (
	"io"
	"log"
)

// Logf writes one diagnostic line. It defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput routes Logf to w through a standard logger with the given prefix
func SetOutput(w io.Writer, prefix string) {
	SetLogger(log.New(w, prefix, log.LstdFlags).Printf)
}
