// Package config loads the optional TOML configuration file. Every field has
// a default, so the server runs without one; command line flags override
// whatever the file sets.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/orchestr8/orchestr8-mcp/internal/config/rules"
	"github.com/orchestr8/orchestr8-mcp/internal/loader"
	"github.com/orchestr8/orchestr8-mcp/internal/logger"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
	"github.com/orchestr8/orchestr8-mcp/internal/transport"
	"github.com/orchestr8/orchestr8-mcp/internal/watch"
)

var logConfig = logger.New("config:config")

// DefaultLogDir is used when neither the flag, the environment nor the file
// name a log directory.
const DefaultLogDir = "/tmp/orchestr8/logs"

// DefaultAgentDir is resolved against the workspace root.
const DefaultAgentDir = "agents"

// Config represents the orchestr8 server configuration
type Config struct {
	Server   ServerConfig     `toml:"server"`
	Registry RegistryConfig   `toml:"registry"`
	Ranking  registry.Weights `toml:"ranking"`
	Logging  LoggingConfig    `toml:"logging"`
}

// ServerConfig holds dispatcher settings
type ServerConfig struct {
	DefaultLimit    int `toml:"default_limit"`
	MaxMessageBytes int `toml:"max_message_bytes"`
}

// RegistryConfig says where agent definitions come from
type RegistryConfig struct {
	AgentDir      string   `toml:"agent_dir"`
	ManifestQuery string   `toml:"manifest_query"`
	Watch         bool     `toml:"watch"`
	WatchDebounce Duration `toml:"watch_debounce"`
}

// LoggingConfig holds log file settings
type LoggingConfig struct {
	LogDir string `toml:"log_dir"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			DefaultLimit:    registry.DefaultLimit,
			MaxMessageBytes: transport.DefaultMaxMessageBytes,
		},
		Registry: RegistryConfig{
			AgentDir:      DefaultAgentDir,
			ManifestQuery: loader.DefaultManifestQuery,
			WatchDebounce: Duration{watch.DefaultDebounce},
		},
		Ranking: registry.DefaultWeights,
		Logging: LoggingConfig{LogDir: DefaultLogDir},
	}
}

// LoadFromFile loads configuration from a TOML file on top of the defaults.
// Unknown keys, undefined ${VAR} references and out-of-range values are
// reported as *rules.ValidationError.
func LoadFromFile(path string) (*Config, error) {
	logConfig.Printf("Loading configuration from %s", path)

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := leafKeys(undecoded)
		return nil, rules.UnsupportedField(
			keys[0],
			fmt.Sprintf("unknown configuration key(s): %s", strings.Join(keys, ", ")),
			keys[0],
			"Check for typos; supported sections are [server], [registry], [ranking] and [logging]",
		)
	}

	if err := cfg.expandVariables(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logConfig.Printf("Loaded configuration: agentDir=%s, defaultLimit=%d, watch=%v", cfg.Registry.AgentDir, cfg.Server.DefaultLimit, cfg.Registry.Watch)
	return cfg, nil
}

// ResolveAgentDir returns the agent directory, resolving relative paths
// against root.
func (c *Config) ResolveAgentDir(root string) string {
	dir := c.Registry.AgentDir
	if dir == "" {
		dir = DefaultAgentDir
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// leafKeys renders undecoded keys, dropping table keys whose children are
// also listed.
func leafKeys(undecoded []toml.Key) []string {
	all := make([]string, len(undecoded))
	for i, k := range undecoded {
		all[i] = k.String()
	}
	sort.Strings(all)

	var keys []string
	for i, k := range all {
		if i+1 < len(all) && strings.HasPrefix(all[i+1], k+".") {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}
