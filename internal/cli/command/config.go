package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vaultlink-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Local CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective CLI configuration",
				Action: configShow,
			},
			{
				Name:  "save",
				Usage: "Write the effective configuration to a config file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Destination (default ~/.vaultlink/cli.yaml)"},
				},
				Action: func(c *cli.Context) error {
					path := c.String("path")
					if path == "" {
						path = config.DefaultConfigPath()
					}
					if err := config.Save(GetSettings(c).Config, path); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "saved %s\n", path)
					return nil
				},
			},
		},
	}
}

func configShow(c *cli.Context) error {
	s := GetSettings(c).Config
	return render(c, struct {
		Server   string `json:"server"`
		CAFile   string `json:"ca_file"`
		Insecure bool   `json:"insecure"`
		Origin   string `json:"origin"`
		Output   string `json:"output"`
		Timeout  string `json:"timeout"`
	}{s.Server, s.CAFile, s.Insecure, s.Origin, s.Output, s.Timeout.String()})
}
