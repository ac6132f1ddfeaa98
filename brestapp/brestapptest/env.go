package brestapptest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [brestapp.BaseEnvironment] env
// vars via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets the [brestapp.BaseEnvironment] env vars to test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - BR_SERVICE_NAME: "test"
//   - BR_READINESS_CHECK_PATH: "/health"
//   - BR_OTEL_EXPORTER: "none"
//   - BR_LOG_LEVEL: "warn"
//   - AWS_REGION: "us-east-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
//
// Use the returned [Env] to override individual values:
//
//	brestapptest.SetBaseEnv(t, 18085).ServiceName("svc").StaticBucket("assets")
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("BR_PORT", strconv.Itoa(port))
	t.Setenv("BR_SERVICE_NAME", "test")
	t.Setenv("BR_READINESS_CHECK_PATH", "/health")
	t.Setenv("BR_OTEL_EXPORTER", "none")
	t.Setenv("BR_LOG_LEVEL", "warn")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	return &Env{t: t}
}

// ServiceName overrides BR_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BR_SERVICE_NAME", name)
	return e
}

// ReadinessCheckPath overrides BR_READINESS_CHECK_PATH.
func (e *Env) ReadinessCheckPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BR_READINESS_CHECK_PATH", path)
	return e
}

// ServerName overrides BR_SERVER_NAME.
func (e *Env) ServerName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BR_SERVER_NAME", name)
	return e
}

// StaticBucket overrides BR_STATIC_BUCKET.
func (e *Env) StaticBucket(bucket string) *Env {
	e.t.Helper()
	e.t.Setenv("BR_STATIC_BUCKET", bucket)
	return e
}
