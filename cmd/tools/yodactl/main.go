package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "yodactl",
		Usage: "Inspect and talk to the Yoda bot from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"YODA_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			rephraseCommand(),
			emotionCommand(),
			inspectCommand(),
			chatCommand(),
		},
	}
}
