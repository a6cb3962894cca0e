package main

import (
	"fmt"
	"os"

	"mlbench-api-server/cmd/api-server/app"
	"mlbench-api-server/cmd/api-server/app/options"
	_ "mlbench-api-server/docs"
	log "mlbench-api-server/internal/logger"
)

func main() {
	option, err := options.NewOptions(os.Args)
	if err != nil {
		fmt.Print(option.Usage(err))
		os.Exit(1)
	}

	logger, err := log.SetupLogger(*option.LogFile, *option.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := app.Run(option, logger); err != nil {
		os.Exit(1)
	}
}
