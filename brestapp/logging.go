package brestapp

import (
	"net/http"
	"time"

	"github.com/advdv/brest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding, BR_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewAccessLog returns a track function that logs one line per request once
// its response is final. Server errors are logged at error level.
func NewAccessLog(logs *zap.Logger) brest.TrackFunc {
	logs = logs.Named("access")

	return func(w brest.ResponseWriter, r *http.Request, elapsed time.Duration) {
		lvl := zapcore.InfoLevel
		if w.Status() >= http.StatusInternalServerError {
			lvl = zapcore.ErrorLevel
		}

		fields := []zap.Field{
			zap.Int("status", w.Status()),
			zap.String("peer", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", elapsed),
		}

		if id := RequestID(r.Context()); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}

		logs.Log(lvl, "request", fields...)
	}
}
