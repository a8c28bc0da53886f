package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "purifygate: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "purifygate",
		Usage: "banned word matching and masking gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"PURIFYGATE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdPurify(),
			cmdCheck(),
			cmdScan(),
		},
	}
}
