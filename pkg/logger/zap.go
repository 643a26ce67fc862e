package logger

import "go.uber.org/zap"

type zapLogger struct {
	log *zap.SugaredLogger
}

var instance *zapLogger

// New builds the process-wide logger from a zap config. The caller skip
// accounts for the package-level helpers.
func New(config zap.Config) (Logger, error) {
	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	defer l.Sync() //nolint
	l = l.WithOptions(zap.AddCallerSkip(2))
	instance = &zapLogger{log: l.Sugar()}
	return instance, nil
}

func Get() Logger {
	if instance == nil {
		panic("logger not initialized")
	}
	return instance
}

func (l *zapLogger) Info(msg string, values ...any)  { l.log.Infow(msg, values...) }
func (l *zapLogger) Warn(msg string, values ...any)  { l.log.Warnw(msg, values...) }
func (l *zapLogger) Error(msg string, values ...any) { l.log.Errorw(msg, values...) }
func (l *zapLogger) Debug(msg string, values ...any) { l.log.Debugw(msg, values...) }
func (l *zapLogger) Panic(msg string, values ...any) { l.log.Panicw(msg, values...) }

func (l *zapLogger) Fatal(err error, values ...any) {
	l.log.Fatalw(err.Error(), values...)
}

func (l *zapLogger) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}
