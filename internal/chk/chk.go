// Package chk provides the broker's inline error-check helpers, used as
// `if chk.E(err) { return }` to both log and branch on a single line.
package chk

import "crawlbroker.dev/internal/log"

// E logs err at error level and reports whether err is non-nil. Use for
// failures that are genuinely unexpected.
func E(err error) bool {
	if err == nil {
		return false
	}
	log.E.F("%s", err)
	return true
}

// D logs err at debug level and reports whether err is non-nil. Use for
// failures a caller already has a recovery path for.
func D(err error) bool {
	if err == nil {
		return false
	}
	log.D.F("%s", err)
	return true
}

// T logs err at trace level and reports whether err is non-nil. Use for
// failures expected often enough that error level would be noise.
func T(err error) bool {
	if err == nil {
		return false
	}
	log.T.F("%s", err)
	return true
}
