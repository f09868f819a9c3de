package main

import (
	"context"
	"errors"
	"os"

	"vttscribe/internal/logging"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		logger, logErr := logging.New(logging.Options{Level: "info"})
		if logErr != nil {
			logger = logging.NewNop()
		}
		logging.Critical(logger, err.Error())
	}
}
