// Package config provides vaultlink-cli configuration.
//
// Settings come from ~/.vaultlink/cli.yaml, then VAULTLINK_CLI_* environment
// variables, then command-line flags.
package config
