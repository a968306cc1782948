package app

import (
	"context"
	"time"

	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"

	"github.com/svlsp/svls-core/src/svls/analysis"
	"github.com/svlsp/svls-core/src/svls/docregistry"
	"github.com/svlsp/svls-core/src/svls/internal/core"
	"github.com/svlsp/svls-core/src/svls/internal/fs"
	"github.com/svlsp/svls-core/src/svls/sourcemgr"
)

// Module wires the analysis core's application root: configuration,
// logging, metrics, the Source Manager, and the Document Registry that
// drives Shallow Analysis for every open document.
var Module = fx.Options(
	fs.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(sourcemgr.New),
	fx.Provide(func() analysis.Options { return nil }),
	fx.Provide(docregistry.New),
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "svls-core",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        "local",
			RuntimeEnvironment: "local",
		}
	}),
)
