package main

import (
	"go.uber.org/fx"

	"github.com/svlsp/svls-core/src/svls/app"
)

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func main() {
	fx.New(opts()).Run()
}
