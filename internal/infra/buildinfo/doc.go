// Package buildinfo exposes version information for shardkv.
//
// Release builds inject values through ldflags:
//
//	go build -ldflags "-X github.com/yndnr/sharded-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/sharded-go/internal/infra/buildinfo.Commit=abc123"
//
// Values that were not injected are filled from the module build
// information embedded by the Go toolchain.
package buildinfo
