package brestapp

import (
	"github.com/advdv/brest"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MuxParams holds the dependencies for creating the app's mux.
type MuxParams struct {
	fx.In

	Env     Environment
	Logger  *zap.Logger
	Metrics *Metrics
}

// NewMux creates the ServeMux configured from the environment, with the
// request id and metrics hooks installed.
func NewMux(params MuxParams) *brest.ServeMux {
	env := params.Env

	mux := brest.NewServeMux(
		brest.WithLogger(brest.NewZapLogger(params.Logger)),
		brest.WithServerName(env.serverName()),
		brest.WithCORSOrigin(env.corsOrigin()),
		brest.WithMaxRequestsPerConn(env.maxRequestsPerConn()),
		brest.WithRequestSizeLimit(env.requestSizeLimit()),
		brest.WithBufferLimit(env.responseBufferLimit()),
		brest.WithRequestContext(NewRequestContext(params.Logger)),
		brest.WithTrack(NewAccessLog(params.Logger)),
		brest.WithQueues(brest.NewQueues(env.queueWorkers())),
	)

	mux.Use(RequestIDHook(), params.Metrics.Hook())

	return mux
}

// NewRegistry creates the metrics registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// registerStaticBucket serves BR_STATIC_BUCKET below BR_STATIC_PREFIX when configured.
func registerStaticBucket(env Environment, mux *brest.ServeMux, client *s3.Client) {
	if env.staticBucket() == "" {
		return
	}

	mux.AddGroup(NewStaticBucket(client, env.staticBucket()), env.staticPrefix())
}
