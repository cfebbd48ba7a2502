package logger

import (
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds a zap production logger at the given level ("debug", "info",
// "warn", "error") and exposes it through the slog API used everywhere else.
func New(logLevel string) (*slog.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"

	config.EncoderConfig.EncodeTime = zapcore.TimeEncoder(func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	})

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	config.Level.SetLevel(level)

	z, err := config.Build()
	if err != nil {
		return nil, err
	}

	return slog.New(zapslog.NewHandler(z.Core(), zapslog.WithCaller(true))), nil
}
