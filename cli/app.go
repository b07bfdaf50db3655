// Package cli defines the cloud-inventory command line interface.
package cli

import (
	"github.com/gruntwork-io/cloud-inventory/pkg/log"
	"github.com/urfave/cli/v2"
)

const (
	appName = "cloud-inventory"

	flagLogLevel = "log-level"
)

// NewApp creates the cloud-inventory CLI app.
func NewApp(logger log.Logger) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "Crawl the resource hierarchy of Google Cloud organizations and write it out as an inventory."
	app.UsageText = appName + " <command> [options]"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level (trace, debug, info, warn, error).",
			Value:   "info",
			EnvVars: []string{"CLOUD_INVENTORY_LOG_LEVEL"},
		},
	}
	app.Before = func(ctx *cli.Context) error {
		return logger.SetLevel(ctx.String(flagLogLevel))
	}
	app.Commands = []*cli.Command{
		NewCrawlCommand(logger),
	}

	return app
}
