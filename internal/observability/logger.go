package observability

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyRoomSID   ctxKey = "room_sid"
)

// basic global logger, JSON to stdout.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

func Logger() *slog.Logger {
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithRoomSID stores the local participant SID in the context so session
// lifecycle logs can be correlated with the room service's own logs.
func WithRoomSID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKeyRoomSID, sid)
}

// LoggerFromContext adds request_id and room_sid if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	log := logger
	if reqID, _ := ctx.Value(ctxKeyRequestID).(string); reqID != "" {
		log = log.With("request_id", reqID)
	}
	if sid, _ := ctx.Value(ctxKeyRoomSID).(string); sid != "" {
		log = log.With("room_sid", sid)
	}
	return log
}
