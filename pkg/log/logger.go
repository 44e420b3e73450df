package log

// Logger is a minimal interface compatible with stdlib loggers.
type Logger interface {
	Printf(format string, v ...interface{})
}

// LeveledLogger is implemented by loggers that distinguish severities.
type LeveledLogger interface {
	Logger
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// NoopLogger discards all log messages.
type NoopLogger struct{}

func (NoopLogger) Printf(string, ...interface{}) {}

// Debugf logs at debug level when supported; plain loggers drop debug lines.
func Debugf(l Logger, format string, v ...interface{}) {
	if lv, ok := l.(LeveledLogger); ok {
		lv.Debugf(format, v...)
	}
}

// Infof logs at info level, falling back to Printf.
func Infof(l Logger, format string, v ...interface{}) {
	if l == nil {
		return
	}
	if lv, ok := l.(LeveledLogger); ok {
		lv.Infof(format, v...)
		return
	}
	l.Printf(format, v...)
}

// Warnf logs at warn level, falling back to Printf.
func Warnf(l Logger, format string, v ...interface{}) {
	if l == nil {
		return
	}
	if lv, ok := l.(LeveledLogger); ok {
		lv.Warnf(format, v...)
		return
	}
	l.Printf("WARN "+format, v...)
}

// Errorf logs at error level, falling back to Printf.
func Errorf(l Logger, format string, v ...interface{}) {
	if l == nil {
		return
	}
	if lv, ok := l.(LeveledLogger); ok {
		lv.Errorf(format, v...)
		return
	}
	l.Printf("ERROR "+format, v...)
}
