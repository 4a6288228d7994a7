// Package cmd holds the relay binaries.
//
// # Commands
//
// relay: The discovery relay server. Reads a YAML config, selects a store
// backend and serves the publish/lookup API with health and metrics
// endpoints.
//
//	go run ./cmd/relay --config=relay.yaml
//	go run ./cmd/relay --addr=:8080 --store=redis --redis-addr=localhost:6379
//
// relayctl: CLI for generating identities and publishing or resolving their
// records.
//
//	go run ./cmd/relayctl keygen
//	go run ./cmd/relayctl publish --relay=http://localhost:8080 --key=<hex> --txt=addr=192.0.2.1:4433
//	go run ./cmd/relayctl resolve <id>
package cmd
