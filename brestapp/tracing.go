package brestapp

import (
	"context"
	"net/http"
	"time"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

const tracingInitTimeout = 5 * time.Second

// NewTracerProvider creates and configures the OpenTelemetry TracerProvider.
// Supported exporters via BR_OTEL_EXPORTER: "stdout" (default), "xrayudp" and
// "none". Shutdown is handled via fx.Lifecycle.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	exporterType := env.otelExporter()
	if exporterType == "none" {
		return noop.NewTracerProvider(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), tracingInitTimeout)
	defer cancel()

	exporter, err := newExporter(ctx, exporterType)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, exporterType, env.serviceName())
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	}
	if exporterType == "xrayudp" {
		opts = append(opts, sdktrace.WithIDGenerator(xray.NewIDGenerator()))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

// NewPropagator creates a TextMapPropagator based on the exporter type.
// For xrayudp: uses the X-Ray propagator.
// Otherwise: uses W3C TraceContext + Baggage composite propagator.
func NewPropagator(env Environment) propagation.TextMapPropagator {
	if env.otelExporter() == "xrayudp" {
		return xray.Propagator{}
	}
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// newExporter creates a span exporter based on the exporter type.
func newExporter(ctx context.Context, exporterType string) (sdktrace.SpanExporter, error) {
	switch exporterType {
	case "stdout", "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "xrayudp":
		return xrayudp.NewSpanExporter(ctx)
	default:
		return nil, errors.Newf("unsupported BR_OTEL_EXPORTER: %q (supported: stdout, xrayudp, none)", exporterType)
	}
}

// newResource describes the service. On xrayudp the Lambda detector fills in
// the function attributes.
func newResource(ctx context.Context, exporterType, serviceName string) (*resource.Resource, error) {
	if exporterType == "xrayudp" {
		res, err := lambda.NewResourceDetector().Detect(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "detect lambda resource")
		}
		return res, nil
	}

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	), nil
}

// withTracing wraps the handler with otelhttp for automatic span creation.
// Requests to excludePaths are not traced.
func withTracing(tp trace.TracerProvider, prop propagation.TextMapPropagator, serviceName string, excludePaths ...string) func(http.Handler) http.Handler {
	excludeSet := make(map[string]struct{}, len(excludePaths))
	for _, p := range excludePaths {
		excludeSet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(prop),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
			otelhttp.WithFilter(func(r *http.Request) bool {
				_, excluded := excludeSet[r.URL.Path]
				return !excluded
			}),
		)
	}
}
