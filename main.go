package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/orchestr8/orchestr8-mcp/internal/cmd"
)

func main() {
	cmd.SetVersion(shortVersion(), buildVersionString())
	cmd.Execute()
}

const shortHashLength = 7

// shortVersion is the bare version reported to MCP clients in serverInfo.
func shortVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// buildVersionString constructs the --version string with build metadata
func buildVersionString() string {
	parts := []string{shortVersion()}

	if GitCommit != "" {
		parts = append(parts, fmt.Sprintf("commit: %s", GitCommit))
	} else if commit := buildSetting("vcs.revision"); commit != "" {
		if len(commit) > shortHashLength {
			commit = commit[:shortHashLength]
		}
		parts = append(parts, fmt.Sprintf("commit: %s", commit))
	}

	if BuildDate != "" {
		parts = append(parts, fmt.Sprintf("built: %s", BuildDate))
	} else if built := buildSetting("vcs.time"); built != "" {
		parts = append(parts, fmt.Sprintf("built: %s", built))
	}

	return strings.Join(parts, ", ")
}

// buildSetting reads a setting recorded by the go command, if any.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
