package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a console logger in development and a JSON logger otherwise.
// An unknown level falls back to info.
func NewLogger(level string, development bool) *zap.Logger {
	loggerConfig := zap.NewProductionConfig()
	if development {
		loggerConfig = zap.NewDevelopmentConfig()
	}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	loggerConfig.Level = atomicLevel

	logger, err := loggerConfig.Build()
	if nil != err {
		panic(err)
	}

	return logger
}
