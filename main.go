package main

import (
	"context"
	"os"

	"github.com/gruntwork-io/cloud-inventory/cli"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"github.com/gruntwork-io/cloud-inventory/pkg/log"
)

// The main entrypoint for cloud-inventory
func main() {
	logger := log.Default()

	defer errors.Recover(checkForErrorsAndExit(logger))

	app := cli.NewApp(logger)
	err := app.RunContext(context.Background(), os.Args)

	checkForErrorsAndExit(logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		os.Exit(1)
	}
}
