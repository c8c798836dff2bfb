// Package buildinfo exposes version information for VaultLink binaries.
//
// Values are injected with ldflags; when absent, the VCS stamp recorded by
// the Go toolchain is used instead:
//
//	go build -ldflags "-X github.com/yndnr/vaultlink-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
