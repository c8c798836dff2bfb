package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vaultlink-go/internal/infra/buildinfo"
)

const binaryName = "vaultlink-server"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		EnvVars: []string{"VAULTLINK_CONFIG"},
	}

	return &cli.App{
		Name:    binaryName,
		Usage:   "DApp session and transaction handshake service",
		Version: buildinfo.Get().Version,
		Flags:   []cli.Flag{configFlag},
		Action: func(c *cli.Context) error {
			return serve(c.Context, c.String("config"))
		},
		Commands: []*cli.Command{
			{
				Name:      "seed",
				Usage:     "Load vaults, users and transactions into the sqlite directory",
				ArgsUsage: "<seed.yaml>",
				Flags:     []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("seed file required", 2)
					}
					return seedDirectory(c.Context, c.String("config"), c.Args().First(), c.App.Writer)
				},
			},
			{
				Name:  "check-config",
				Usage: "Validate the configuration and print it with secrets masked",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					return checkConfig(c.String("config"), c.App.Writer)
				},
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, buildinfo.String(binaryName))
					return nil
				},
			},
		},
	}
}
