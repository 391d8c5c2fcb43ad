package orbveil

import (
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is a structured logging sink with DEBUG/INFO/WARNING/ERROR levels.
// The core never configures the sink itself — it only emits
// through whatever Logger a caller injects, following estimate.go's
// kitlog.Logger field pattern. The zero value logs nothing.
type Logger = kitlog.Logger

// nopLogger is used whenever a component is constructed without an
// explicit Logger.
func nopLogger() Logger {
	return kitlog.NewNopLogger()
}

func logDebug(l Logger, keyvals ...interface{}) {
	if l == nil {
		return
	}
	level.Debug(l).Log(keyvals...)
}

func logInfo(l Logger, keyvals ...interface{}) {
	if l == nil {
		return
	}
	level.Info(l).Log(keyvals...)
}

func logWarn(l Logger, keyvals ...interface{}) {
	if l == nil {
		return
	}
	level.Warn(l).Log(keyvals...)
}

func logError(l Logger, keyvals ...interface{}) {
	if l == nil {
		return
	}
	level.Error(l).Log(keyvals...)
}
