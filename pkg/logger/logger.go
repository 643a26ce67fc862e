package logger

import (
	"os"

	"go.uber.org/zap"
)

// Logger is the logging surface the rest of the codebase depends on.
// Keys and values are passed as alternating pairs, zap sugared style.
type Logger interface {
	Info(msg string, values ...any)
	Warn(msg string, values ...any)
	Error(msg string, values ...any)
	Debug(msg string, values ...any)
	Panic(msg string, values ...any)
	Fatal(err error, values ...any)
	Printf(format string, args ...interface{})
}

func init() {
	var config zap.Config

	if os.Getenv("LOG_ENV") == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	if _, err := New(config); err != nil {
		panic(err)
	}
}

func Info(msg string, values ...any)  { Get().Info(msg, values...) }
func Warn(msg string, values ...any)  { Get().Warn(msg, values...) }
func Error(msg string, values ...any) { Get().Error(msg, values...) }
func Debug(msg string, values ...any) { Get().Debug(msg, values...) }
func Panic(msg string, values ...any) { Get().Panic(msg, values...) }
func Fatal(err error, values ...any)  { Get().Fatal(err, values...) }
