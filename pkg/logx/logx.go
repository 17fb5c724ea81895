package logx

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var lg *zap.SugaredLogger

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// Init builds the process logger. The level comes from LOG_LEVEL.
func Init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(os.Getenv("LOG_LEVEL")))
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	lg = z.Sugar().With("service", "intake-api")
}

// Set replaces the process logger; tests use it with zaptest/observer cores.
func Set(l *zap.SugaredLogger) { lg = l }

func L() *zap.SugaredLogger {
	if lg == nil {
		Init()
	}
	return lg
}

func Sync() { _ = L().Sync() }
