// Package main provides the entry point for vaultlink-cli.
//
// vaultlink-cli inspects dapp sessions and connector codes through the
// VaultLink HTTP API:
//
//	vaultlink-cli --origin https://dapp.example dapp accounts SESSION_ID
//	vaultlink-cli --server https://vault.example:8080 --ca-file ca.pem code show CODE
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/vaultlink-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
