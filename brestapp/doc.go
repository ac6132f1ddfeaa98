// Package brestapp assembles a brest.ServeMux into a runnable service.
//
// The app is built with go.uber.org/fx. It provides:
//
//   - environment configuration parsed into [BaseEnvironment] (BR_* variables)
//   - a zap logger and a request scoped, trace-correlated logger via [Log]
//   - OpenTelemetry tracing (stdout, xrayudp or none)
//   - an access log, a request id and Prometheus metrics for every request
//   - health and metrics endpoints
//   - optional serving of an S3 bucket below a prefix, see [NewStaticBucket]
//
// On shutdown the HTTP server stops accepting requests and the worker queues
// of the mux are drained.
package brestapp
