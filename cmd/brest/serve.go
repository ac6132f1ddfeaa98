package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advdv/brest"
	"github.com/advdv/brest/brestapp"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		static             staticFlags
		addr               string
		logLevel           string
		maxRequestsPerConn int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve files over HTTP",
		Long: `Serve a directory, or a single file, below a path prefix. For a directory
requests for the prefix itself are answered with its index.html, a single file
is answered for the prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lvl, err := zapcore.ParseLevel(logLevel)
			if err != nil {
				return errors.Wrap(err, "parse log level")
			}

			logs, err := brestapp.NewLogger(brestapp.BaseEnvironment{LogLevel: lvl})
			if err != nil {
				return errors.Wrap(err, "create logger")
			}
			defer func() { _ = logs.Sync() }()

			mux := brest.NewServeMux(
				brest.WithLogger(brest.NewZapLogger(logs)),
				brest.WithMaxRequestsPerConn(maxRequestsPerConn),
				brest.WithRequestContext(brestapp.NewRequestContext(logs)),
				brest.WithTrack(brestapp.NewAccessLog(logs)),
			)
			mux.Use(brestapp.RequestIDHook())

			if err := static.mount(mux); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, logs, mux, addr)
		},
	}

	static.register(cmd)
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().IntVar(&maxRequestsPerConn, "max-requests-per-conn", 0, "Close connections after this many requests (0 is unlimited)")

	return cmd
}

// serve runs the server until ctx is done, then shuts it down and drains the
// worker queues.
func serve(ctx context.Context, logs *zap.Logger, mux *brest.ServeMux, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ConnContext:       mux.ConnContext,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Info("starting server", zap.String("addr", addr))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "listen and serve")
	case <-ctx.Done():
	}

	logs.Info("stopping server")

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return errors.CombineErrors(
		server.Shutdown(stopCtx),
		mux.Queues().Wait(stopCtx))
}
