// Package buildinfo reports the version of the running binary.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/bestelldesk-go/internal/infra/buildinfo.Version=v1.2.0" ./cmd/bestelldesk-backup
//
// Values left unset are filled from the module build info the Go
// toolchain embeds (VCS revision and time, compiler version).
package buildinfo
