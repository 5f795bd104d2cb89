// Package cli turns the portabundle command line into app configuration.
// It owns flag parsing for the build and fetch commands, usage output and
// the mapping of failures onto process exit codes.
package cli
