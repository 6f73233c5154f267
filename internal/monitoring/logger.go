package monitoring

import "log"

// LogFunc is the printf-style diagnostic hook accepted by the analysis packages.
// A nil LogFunc is valid everywhere and means silent.
type LogFunc func(format string, v ...interface{})

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf LogFunc = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f LogFunc) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Emit calls f when it is non-nil.
func (f LogFunc) Emit(format string, v ...interface{}) {
	if f != nil {
		f(format, v...)
	}
}
