// Package main is the handeye command itself.
package main

import (
	"context"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/zivid/handeye-go/cli"
	"github.com/zivid/handeye-go/logging"
)

var logger = logging.NewLogger("handeye")

func main() {
	utils.ContextualMain(mainWithArgs, logger.AsZap())
}

func mainWithArgs(ctx context.Context, args []string, _ golog.Logger) error {
	app := cli.NewApp(cli.AppOptions{Logger: logger})
	return app.RunContext(ctx, args)
}
