package brestapp

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const awsConfigTimeout = 10 * time.Second

// NewAWSConfig loads the default AWS SDK v2 configuration.
func NewAWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, errors.Wrap(err, "load aws config")
	}

	return cfg, nil
}

// provideAWSConfig is an fx provider that loads AWS config with a timeout.
// The config is instrumented with OpenTelemetry for AWS SDK tracing.
func provideAWSConfig(tp trace.TracerProvider, prop propagation.TextMapPropagator) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer cancel()

	cfg, err := NewAWSConfig(ctx)
	if err != nil {
		return cfg, err
	}

	otelaws.AppendMiddlewares(&cfg.APIOptions,
		otelaws.WithTracerProvider(tp),
		otelaws.WithTextMapPropagator(prop),
	)

	return cfg, nil
}

// provideS3Client builds the S3 client the static bucket reads from.
func provideS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}
