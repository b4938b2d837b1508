package utils

import (
	"io"
)

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the diagnostic logger writing to w. Callers pass stderr so
// that stdout carries nothing but the plugin status line. Outside of verbose
// mode only errors are written.
func NewLogger(verbose bool, w io.Writer) *zap.SugaredLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	level := zapcore.ErrorLevel
	options := []zap.Option{}

	if verbose {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
		options = append(options, zap.AddCaller(), zap.Development())
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w), level)

	return zap.New(core, options...).Sugar()
}
