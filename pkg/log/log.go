package log

import "io"

// std is the default logger used by the package-level output functions.
var std = New()

// Default returns the standard logger used by the package-level output functions.
// It is highly recommended not to use it in tests to avoid conflicts between parallel tests.
func Default() Logger {
	return std
}

// SetOutput sets the output writer on the standard logger.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Debugf logs a message at level Debug on the standard logger.
func Debugf(format string, args ...any) {
	std.Debugf(format, args...)
}

// Infof logs a message at level Info on the standard logger.
func Infof(format string, args ...any) {
	std.Infof(format, args...)
}

// Warnf logs a message at level Warn on the standard logger.
func Warnf(format string, args ...any) {
	std.Warnf(format, args...)
}

// Errorf logs a message at level Error on the standard logger.
func Errorf(format string, args ...any) {
	std.Errorf(format, args...)
}
