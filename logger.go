package brush

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// SetLogger replaces the package logger. Passing nil restores the no-op
// logger. Brush logs scope warnings, dropped updates, compositor failures and
// debug frame statistics.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Logger returns the package logger. It is a no-op logger by default.
func Logger() *zap.Logger {
	return logger.Load()
}
