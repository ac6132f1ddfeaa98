// Package brestapptest provides test helpers for brestapp applications.
//
// It constructs the identical DI graph as [brestapp.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	brestapptest.SetBaseEnv(t, 18081)
//	app := brestapptest.New[brestapp.BaseEnvironment](t, routing)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package brestapptest

import (
	"testing"

	"github.com/advdv/brest/brestapp"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing brestapp applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [brestapp.NewApp].
func New[E brestapp.Environment](t testing.TB, routing any, opts ...brestapp.Option) *App {
	return &App{App: fxtest.New(t, brestapp.FxOptions[E](routing, opts...)...)}
}
