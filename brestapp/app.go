package brestapp

import (
	"context"

	"github.com/advdv/brest"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler.
// If not set, a default handler returning 200 OK is used.
func WithHealthHandler(h brest.ImmediateFunc) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// FxOptions returns the options of the app's dependency graph. The routing
// function can request any type that is provided, at minimum it accepts the
// *brest.ServeMux to register routes on.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return append([]fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(NewLogger),
		fx.Provide(NewRegistry),
		fx.Provide(func(reg *prometheus.Registry) *Metrics { return NewMetrics(reg) }),
		fx.Provide(NewMux),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(provideAWSConfig),
		fx.Provide(provideS3Client),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		fx.Invoke(startServerHook),
		fx.Invoke(registerStaticBucket),
		fx.Invoke(routing),
	}, cfg.FxOptions...)
}

// NewApp creates a batteries-included app with dependency injection.
//
// Example:
//
//	brestapp.NewApp[Env](func(m *brest.ServeMux, h *Handlers) {
//	    m.Get("/items/:id", brest.Immediate(h.GetItem), brest.Named("get-item"))
//	},
//	    brestapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{app: fx.New(FxOptions[E](routing, opts...)...)}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application and blocks until ctx is done, then stops it.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
