// Command relayctl publishes and resolves peer records against a relay.
//
//	relayctl keygen
//	relayctl publish --relay http://localhost:8080 --key <hex> --txt addr=192.0.2.1:4433
//	relayctl resolve <id>
//
// Flags may also be set through RELAYCTL_* environment variables or a YAML
// file passed with --config.
package main

import (
	"os"

	"github.com/flashbots/disco-relay/cmd/relayctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
