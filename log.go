package bfevfl

import (
	"log"
	"os"
	"sync/atomic"
)

// Level is the severity of a diagnostic log message, following the same
// hierarchy (trace < debug < info < warn < error) as EntityDB's logger:
// setting a level suppresses everything below it, and the check is a single
// atomic load so it costs nothing on the hot parse/serialize path when
// logging is disabled.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	currentLevel atomic.Int32
	stdlog       = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

func init() {
	currentLevel.Store(int32(LevelWarn))
}

// SetLogLevel sets the minimum level the package will emit. The default is
// LevelWarn, which is silent for well-formed input.
func SetLogLevel(l Level) {
	currentLevel.Store(int32(l))
}

func logf(l Level, format string, args ...interface{}) {
	if Level(currentLevel.Load()) > l {
		return
	}
	stdlog.Printf("[%s] "+format, append([]interface{}{l}, args...)...)
}

func logTrace(format string, args ...interface{}) { logf(LevelTrace, format, args...) }
func logDebug(format string, args ...interface{}) { logf(LevelDebug, format, args...) }
func logWarn(format string, args ...interface{})  { logf(LevelWarn, format, args...) }
