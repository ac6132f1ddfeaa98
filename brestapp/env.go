package brestapp

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	serverName() string
	readinessCheckPath() string
	metricsPath() string
	logLevel() zapcore.Level
	otelExporter() string
	corsOrigin() string
	maxRequestsPerConn() int
	requestSizeLimit() int64
	responseBufferLimit() int
	queueWorkers() int
	receiveTimeout() time.Duration
	keepAliveTimeout() time.Duration
	shutdownTimeout() time.Duration
	staticBucket() string
	staticPrefix() string
}

// BaseEnvironment contains the environment variables every brest app reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port                int           `env:"BR_PORT" envDefault:"8080"`
	ServiceName         string        `env:"BR_SERVICE_NAME" envDefault:"brest"`
	ServerName          string        `env:"BR_SERVER_NAME" envDefault:"brest"`
	ReadinessCheckPath  string        `env:"BR_READINESS_CHECK_PATH" envDefault:"/health"`
	MetricsPath         string        `env:"BR_METRICS_PATH" envDefault:"/metrics"`
	LogLevel            zapcore.Level `env:"BR_LOG_LEVEL" envDefault:"info"`
	OtelExporter        string        `env:"BR_OTEL_EXPORTER" envDefault:"stdout"`
	CORSOrigin          string        `env:"BR_CORS_ORIGIN" envDefault:"*"`
	MaxRequestsPerConn  int           `env:"BR_MAX_REQUESTS_PER_CONN" envDefault:"0"`
	RequestSizeLimit    int64         `env:"BR_REQUEST_SIZE_LIMIT" envDefault:"0"`
	ResponseBufferLimit int           `env:"BR_RESPONSE_BUFFER_LIMIT" envDefault:"-1"`
	QueueWorkers        int           `env:"BR_QUEUE_WORKERS" envDefault:"0"`
	ReceiveTimeout      time.Duration `env:"BR_RECEIVE_TIMEOUT" envDefault:"30s"`
	KeepAliveTimeout    time.Duration `env:"BR_KEEP_ALIVE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout     time.Duration `env:"BR_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// StaticBucket enables serving objects of this S3 bucket below StaticPrefix.
	StaticBucket string `env:"BR_STATIC_BUCKET"`
	StaticPrefix string `env:"BR_STATIC_PREFIX" envDefault:"/static"`
}

func (e BaseEnvironment) port() int                       { return e.Port }
func (e BaseEnvironment) serviceName() string             { return e.ServiceName }
func (e BaseEnvironment) serverName() string              { return e.ServerName }
func (e BaseEnvironment) readinessCheckPath() string      { return e.ReadinessCheckPath }
func (e BaseEnvironment) metricsPath() string             { return e.MetricsPath }
func (e BaseEnvironment) logLevel() zapcore.Level         { return e.LogLevel }
func (e BaseEnvironment) otelExporter() string            { return e.OtelExporter }
func (e BaseEnvironment) corsOrigin() string              { return e.CORSOrigin }
func (e BaseEnvironment) maxRequestsPerConn() int         { return e.MaxRequestsPerConn }
func (e BaseEnvironment) requestSizeLimit() int64         { return e.RequestSizeLimit }
func (e BaseEnvironment) responseBufferLimit() int        { return e.ResponseBufferLimit }
func (e BaseEnvironment) queueWorkers() int               { return e.QueueWorkers }
func (e BaseEnvironment) receiveTimeout() time.Duration   { return e.ReceiveTimeout }
func (e BaseEnvironment) keepAliveTimeout() time.Duration { return e.KeepAliveTimeout }
func (e BaseEnvironment) shutdownTimeout() time.Duration  { return e.ShutdownTimeout }
func (e BaseEnvironment) staticBucket() string            { return e.StaticBucket }
func (e BaseEnvironment) staticPrefix() string            { return e.StaticPrefix }

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
