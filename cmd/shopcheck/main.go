package main

import (
	"fmt"
	"os"

	internalcli "github.com/adyen/shopcheck/internal/cli"
	"github.com/adyen/shopcheck/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	app := &cli.App{
		Name:    "shopcheck",
		Usage:   "API and end-to-end checks for the storefront",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Value: "info", Usage: "trace, debug, info, warn or error"},
			&cli.BoolFlag{Name: "pretty", Usage: "human readable log output"},
		},
		Before: func(c *cli.Context) error {
			logging.Setup(c.String("log-level"), c.Bool("pretty"))
			if envErr != nil {
				log.Debug().Msg(".env file not found, using environment variables")
			}
			return nil
		},
		Commands: internalcli.Commands(os.Getenv),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
