// Package version reports the authkit build.
//
// Version, commit and build time are set at link time and fall back to the
// VCS stamp embedded by the Go toolchain:
//
//	go build -ldflags "-X github.com/kbukum/authkit/version.Version=1.2.0" ./cmd/authctl
package version
