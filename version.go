package main

// Build-time variables, set with -ldflags "-X main.<name>=<value>"
var (
	// Version is the semantic version of the binary (e.g., "v1.0.0")
	Version = "dev"

	// GitCommit is the git commit hash at build time
	GitCommit = ""

	// BuildDate is the build time in RFC3339 format
	BuildDate = ""
)
