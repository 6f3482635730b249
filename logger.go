package bootstrap

// Logger defines the interface for runtime logging.
// The runtime uses structured logging with key-value pairs:
//
//	logger.Info("bean object created", "contract", contract, "unit", name)
//
// *slog.Logger satisfies this interface directly.
type Logger interface {
	// Info logs lifecycle banners, discovery counts and bean creation.
	Info(msg string, args ...any)

	// Error logs failures that do not stop the runtime, such as observer errors.
	Error(msg string, args ...any)

	// Warn logs discovery failures and absent beans.
	Warn(msg string, args ...any)

	// Debug logs per-candidate construction failures and skipped resources.
	Debug(msg string, args ...any)
}

// NopLogger discards all log output
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
