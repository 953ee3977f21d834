// logging.go - subsystem-tagged console logging for the Saturn core

package saturn

import (
	"fmt"
	"os"
)

// logTag colors mirror the ANSI 24-bit escape convention used throughout
// the engine's terminal output (see terminal_host.go).
const (
	logColorInfo  = "\033[38;2;120;200;255m"
	logColorWarn  = "\033[38;2;255;200;60m"
	logColorError = "\033[38;2;255;80;80m"
	logColorReset = "\033[0m"
)

// Logf writes an informational line tagged with the subsystem name, e.g.
// Logf("JIT", "compiled block at %#x", pc).
func Logf(subsystem, format string, args ...any) {
	fmt.Fprintf(os.Stdout, "%s[%s]%s %s\n", logColorInfo, subsystem, logColorReset, fmt.Sprintf(format, args...))
}

// Warnf writes a warning line tagged with the subsystem name.
func Warnf(subsystem, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s[%s WARN]%s %s\n", logColorWarn, subsystem, logColorReset, fmt.Sprintf(format, args...))
}

// Errorf writes an error line tagged with the subsystem name.
func Errorf(subsystem, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s[%s ERROR]%s %s\n", logColorError, subsystem, logColorReset, fmt.Sprintf(format, args...))
}
