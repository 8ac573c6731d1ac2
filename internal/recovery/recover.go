// Package recovery converts panics in resolver calls into errors so a
// single bad request cannot take down the Flight server.
package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// RecoverToValue runs fn and converts a panic into an error, logging the
// stack trace under the given operation name.
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			var zero T
			result = zero
			err = fmt.Errorf("%s panicked: %v", operation, r)
		}
	}()
	return fn()
}
