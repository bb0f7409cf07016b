package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	app := cli.App{
		Name:      "partline",
		HelpName:  "partline",
		Usage:     "play and inspect tick-scheduled event scores",
		UsageText: "partline <command> [arguments...]",
		Version:   version,
		Commands: []cli.Command{
			{
				Name:      "play",
				Aliases:   []string{"p"},
				Usage:     "play a score against the transport clock",
				UsageText: "partline play [options] <score.yaml>",
				Action:    play,
				Flags:     playFlags,
			},
			{
				Name:      "inspect",
				Aliases:   []string{"i"},
				Usage:     "show the parts and events of a score",
				UsageText: "partline inspect <score.yaml>",
				Action:    inspect,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "partline: %s\n", err)
		os.Exit(1)
	}
}
