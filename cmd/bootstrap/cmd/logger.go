package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GoCodeAlone/bootstrap"
)

var (
	errUnknownLogFormat = errors.New("unknown log format")
	errUnknownLogLevel  = errors.New("unknown log level")
)

// zapLogger adapts a sugared zap logger to bootstrap.Logger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

// newLogger builds the runtime logger writing to w. The returned function
// flushes buffered output.
func newLogger(w io.Writer, format, level string) (bootstrap.Logger, func(), error) {
	switch format {
	case "", "text":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("%w: %s", errUnknownLogLevel, level)
		}
		logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
		return logger, func() {}, nil

	case "json":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", errUnknownLogLevel, level)
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(w),
			lvl,
		)
		logger := zap.New(core)
		return &zapLogger{sugar: logger.Sugar()}, func() { _ = logger.Sync() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", errUnknownLogFormat, format)
	}
}
