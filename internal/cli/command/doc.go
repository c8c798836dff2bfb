// Package command defines the vaultlink-cli commands on urfave/cli/v2.
//
//   - root.go: App, global flags, settings resolution
//   - dapp.go: dapp session commands
//   - code.go: connector code commands
//   - config.go: local configuration commands
package command
