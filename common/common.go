// Package common holds build-time identifiers shared by the relay binaries.
package common

// PackageName is the service name reported in logs and the index banner.
const PackageName = "disco-relay"

// Version is set at build time via -ldflags "-X github.com/flashbots/disco-relay/common.Version=...".
var Version = "dev"
