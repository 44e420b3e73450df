package log

import "go.uber.org/zap"

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap adapts a zap logger. A nil logger yields a no-op zap logger.
func NewZap(z *zap.Logger) LeveledLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &zapLogger{s: z.Sugar()}
}

// NewDefault builds a production zap logger, or a development one when verbose.
func NewDefault(verbose bool) (LeveledLogger, func(), error) {
	var (
		z   *zap.Logger
		err error
	)
	if verbose {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, err
	}
	return NewZap(z), func() { _ = z.Sync() }, nil
}

func (l *zapLogger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }
func (l *zapLogger) Debugf(format string, v ...interface{}) { l.s.Debugf(format, v...) }
func (l *zapLogger) Infof(format string, v ...interface{})  { l.s.Infof(format, v...) }
func (l *zapLogger) Warnf(format string, v ...interface{})  { l.s.Warnf(format, v...) }
func (l *zapLogger) Errorf(format string, v ...interface{}) { l.s.Errorf(format, v...) }
