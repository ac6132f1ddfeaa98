package brestapp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/advdv/brest"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxReadHeaderTimeout = 5 * time.Second

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	HealthHandler brest.ImmediateFunc
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Mux        *brest.ServeMux
	Registry   *prometheus.Registry
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates an HTTP server that serves the mux. It registers the
// health and metrics endpoints, neither of which is traced.
func NewServer(params ServerParams, cfg ServerConfig) *http.Server {
	healthPath := params.Env.readinessCheckPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	params.Mux.Get(healthPath, brest.Immediate(healthHandler))

	excluded := []string{healthPath}
	if metricsPath := params.Env.metricsPath(); metricsPath != "" {
		params.Mux.Get(metricsPath, brest.Std(promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{})))
		excluded = append(excluded, metricsPath)
	}

	handler := withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), excluded...)(params.Mux)

	receive := params.Env.receiveTimeout()

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ConnContext:       params.Mux.ConnContext,
		ReadHeaderTimeout: min(receive, maxReadHeaderTimeout),
		ReadTimeout:       receive,
		IdleTimeout:       params.Env.keepAliveTimeout(),
	}
}

// startServerHook registers lifecycle hooks for the HTTP server. On stop the
// server shuts down first, then the worker queues drain.
func startServerHook(lc fx.Lifecycle, env Environment, server *http.Server, mux *brest.ServeMux, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for _, ri := range mux.AllRoutes() {
				logger.Info("route",
					zap.Stringer("verb", ri.Verb),
					zap.String("pattern", ri.Pattern),
					zap.Stringer("kind", ri.Kind),
					zap.String("queue", ri.Queue))
			}

			ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", server.Addr)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", server.Addr)
			}

			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")

			ctx, cancel := context.WithTimeout(ctx, env.shutdownTimeout())
			defer cancel()

			return errors.CombineErrors(
				server.Shutdown(ctx),
				mux.Queues().Wait(ctx))
		},
	})
}

func defaultHealthHandler(w brest.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
