package command

import (
	"github.com/urfave/cli/v2"
)

// CodeCommand returns the connector code subcommand group.
func CodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "code",
		Usage: "Issue and inspect connector codes",
		Subcommands: []*cli.Command{
			{
				Name:      "issue",
				Usage:     "Issue a connector code for a transaction",
				ArgsUsage: "SESSION_ID VAULT_ADDRESS TX_ID",
				Action:    codeIssue,
			},
			{
				Name:      "show",
				Usage:     "Show a connector code",
				ArgsUsage: "CODE",
				Action:    codeShow,
			},
		},
	}
}

func codeIssue(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	args := c.Args()
	code, err := client.IssueCode(ctxOf(c), args.Get(0), args.Get(1), args.Get(2))
	if err != nil {
		return err
	}
	return render(c, code)
}

func codeShow(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, false)
	if err != nil {
		return err
	}
	code, err := client.LookupCode(ctxOf(c), c.Args().First())
	if err != nil {
		return err
	}
	return render(c, code)
}
