package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mediadex/internal/services"
)

// Diagnostic logs a recoverable failure. When the logger is enabled for info
// the full wrapped error chain is emitted at error level; otherwise a single
// warning line carries the error text.
func Diagnostic(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...Attr) {
	if logger == nil || err == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logger.Enabled(ctx, slog.LevelInfo) {
		full := append([]Attr{
			Error(err),
			String(FieldEventType, services.Kind(err)),
			Strings("error_chain", errorChain(err)),
		}, attrs...)
		logger.ErrorContext(ctx, msg, Args(full...)...)
		return
	}
	logger.WarnContext(ctx, fmt.Sprintf("%s: %v", msg, err))
}

func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, fmt.Sprintf("%T: %v", err, err))
		next := errors.Unwrap(err)
		if next == nil {
			if joined, ok := err.(interface{ Unwrap() []error }); ok {
				for _, inner := range joined.Unwrap() {
					chain = append(chain, errorChain(inner)...)
				}
			}
		}
		err = next
	}
	return chain
}
