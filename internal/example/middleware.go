// Package example implements example hooks in an outside package.
package example

import (
	"context"
	"net/http"
	"time"

	"github.com/advdv/brest"
	"go.uber.org/zap"
)

// ctxKey type scopes context values.
type ctxKey string

// RequestContext provides an example for a context initializer that adds a logger to the context.
func RequestContext(logs *zap.Logger) brest.RequestContextFunc {
	return func(r *http.Request) (context.Context, error) {
		logs := logs.With(zap.String("method", r.Method))

		return context.WithValue(r.Context(), ctxKey("zap"), logs), nil
	}
}

// Log returns the logger that was added to the context, or a no-op logger.
func Log(ctx context.Context) *zap.Logger {
	v, ok := ctx.Value(ctxKey("zap")).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}

	return v
}

// Timing is a hook that reports how long the server took in a Server-Timing header.
func Timing() brest.Hook {
	return brest.HookFuncs{
		AfterFunc: func(w brest.ResponseWriter, r *http.Request) {
			start, ok := brest.RequestStart(r.Context())
			if !ok {
				return
			}

			w.Header().Set("Server-Timing", "app;dur="+time.Since(start).Round(time.Millisecond).String())
			Log(r.Context()).Debug("request served", zap.Int("status", w.Status()))
		},
	}
}
