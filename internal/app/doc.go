// Package app contains the core application logic. It wires a loaded
// manifest to the build orchestrator, the optional publisher and the remote
// fetcher, decoupled from any specific entrypoint like a CLI.
package app
