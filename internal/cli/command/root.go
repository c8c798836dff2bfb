package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vaultlink-go/internal/cli/config"
	"github.com/yndnr/vaultlink-go/internal/cli/connection"
	"github.com/yndnr/vaultlink-go/internal/cli/output"
	"github.com/yndnr/vaultlink-go/internal/infra/buildinfo"
	"github.com/yndnr/vaultlink-go/internal/infra/tlsroots"
)

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "vaultlink-cli",
		Usage:    "VaultLink command-line tool",
		Version:  buildinfo.Get().Version,
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Before:   loadSettings,
		Commands: []*cli.Command{
			DAppCommand(),
			CodeCommand(),
			ConfigCommand(),
			PingCommand(),
		},
	}
}

// globalFlags returns the global CLI flags. Unset flags fall back to the
// config file and VAULTLINK_CLI_* variables.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file (default ~/.vaultlink/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "VaultLink server address (e.g., https://vault.example:8080)",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM CA bundle used to verify the server certificate",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip server certificate verification",
		},
		&cli.StringFlag{
			Name:  "origin",
			Usage: "DApp origin sent with session commands",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
	}
}

// Settings is the effective CLI configuration for one invocation.
type Settings struct {
	Config *config.CLIConfig
	Format output.Format
}

// loadSettings merges config file, environment and flags.
func loadSettings(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("ca-file") {
		cfg.CAFile = c.String("ca-file")
	}
	if c.IsSet("insecure") {
		cfg.Insecure = c.Bool("insecure")
	}
	if c.IsSet("origin") {
		cfg.Origin = c.String("origin")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	c.App.Metadata[settingsKey] = &Settings{Config: cfg, Format: format}
	return nil
}

// GetSettings retrieves the effective settings from context.
func GetSettings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return &Settings{Config: config.Default(), Format: output.FormatTable}
}

// newClient builds an API client from the effective settings.
func newClient(c *cli.Context, requireOrigin bool) (*connection.Client, error) {
	s := GetSettings(c).Config
	if requireOrigin && s.Origin == "" {
		return nil, errors.New("--origin is required for session commands")
	}

	opts := []connection.Option{
		connection.WithOrigin(s.Origin),
		connection.WithTimeout(s.Timeout),
	}
	if strings.HasPrefix(s.Server, "https://") || s.CAFile != "" {
		tlsCfg, err := tlsroots.ClientConfig(s.CAFile, s.Insecure)
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}
	return connection.NewClient(s.Server, opts...), nil
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(GetSettings(c).Format).Format(c.App.Writer, data)
}

// requireArgs checks the positional argument count.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s): %s", c.Command.Name, n, c.Command.ArgsUsage)
	}
	return nil
}

// PingCommand checks server health.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the server is reachable",
		Action: func(c *cli.Context) error {
			client, err := newClient(c, false)
			if err != nil {
				return err
			}
			if err := client.Health(ctxOf(c)); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s is healthy\n", client.BaseURL())
			return nil
		},
	}
}

func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
