// errors.go - recoverable-error tracking shared across the core

package saturn

import (
	"fmt"
	"sync"
)

// errorSink records the most recent recoverable error message for a
// component, mirroring core_wrapper.hpp's m_lastError/GetLastError
// contract (spec.md §7): recoverable failures are swallowed but never
// silently lost.
type errorSink struct {
	mu  sync.Mutex
	msg string
}

func (e *errorSink) set(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.mu.Lock()
	e.msg = msg
	e.mu.Unlock()
	Errorf("CORE", "%s", msg)
}

func (e *errorSink) get() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.msg
}

func (e *errorSink) clear() {
	e.mu.Lock()
	e.msg = ""
	e.mu.Unlock()
}
