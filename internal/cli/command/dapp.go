package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/vaultlink-go/internal/cli/connection"
)

// DAppCommand returns the dapp subcommand group.
func DAppCommand() *cli.Command {
	return &cli.Command{
		Name:    "dapp",
		Aliases: []string{"session"},
		Usage:   "Inspect and manage dapp sessions",
		Subcommands: []*cli.Command{
			{
				Name:      "connect",
				Usage:     "Bind a vault to a session",
				ArgsUsage: "SESSION_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "vault", Usage: "Vault ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "DApp display name"},
					&cli.StringFlag{Name: "user", Usage: "Owner wallet address"},
				},
				Action: dappConnect,
			},
			{
				Name:      "state",
				Usage:     "Show whether the session is connected",
				ArgsUsage: "SESSION_ID",
				Action:    dappState,
			},
			{
				Name:      "accounts",
				Usage:     "List vault addresses bound to the session",
				ArgsUsage: "SESSION_ID",
				Action:    dappAccounts,
			},
			{
				Name:      "account",
				Usage:     "Show the current vault address",
				ArgsUsage: "SESSION_ID",
				Action:    dappAccount,
			},
			{
				Name:      "network",
				Usage:     "Show the network provider of the current vault",
				ArgsUsage: "SESSION_ID",
				Action:    dappNetwork,
			},
			{
				Name:      "current",
				Usage:     "Show the current vault id across all origins",
				ArgsUsage: "SESSION_ID",
				Action:    dappCurrent,
			},
			{
				Name:      "disconnect",
				Usage:     "Delete the session",
				ArgsUsage: "SESSION_ID",
				Action:    dappDisconnect,
			},
		},
	}
}

func dappConnect(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	conn, err := client.Connect(ctxOf(c), &connection.ConnectRequest{
		VaultID:     c.String("vault"),
		SessionID:   c.Args().First(),
		Name:        c.String("name"),
		UserAddress: c.String("user"),
	})
	if err != nil {
		return err
	}
	return render(c, conn)
}

func dappState(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	connected, err := client.State(ctxOf(c), c.Args().First())
	if err != nil {
		return err
	}
	return render(c, struct {
		Connected bool `json:"connected"`
	}{connected})
}

func dappAccounts(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	accounts, err := client.Accounts(ctxOf(c), c.Args().First())
	if err != nil {
		return err
	}
	return render(c, accounts)
}

func dappAccount(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	addr, err := client.CurrentAccount(ctxOf(c), c.Args().First())
	if err != nil {
		return err
	}
	return render(c, addr)
}

func dappNetwork(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	provider, err := client.CurrentNetwork(ctxOf(c), c.Args().First())
	if err != nil {
		return err
	}
	return render(c, provider)
}

func dappCurrent(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, false)
	if err != nil {
		return err
	}
	vaultID, err := client.Current(ctxOf(c), c.Args().First())
	if err != nil {
		return err
	}
	return render(c, struct {
		VaultID string `json:"vaultId"`
	}{vaultID})
}

func dappDisconnect(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	if err := client.Disconnect(ctxOf(c), c.Args().First()); err != nil {
		return err
	}
	return render(c, struct {
		Connected bool `json:"connected"`
	}{false})
}
