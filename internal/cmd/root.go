package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orchestr8/orchestr8-mcp/internal/config"
	"github.com/orchestr8/orchestr8-mcp/internal/health"
	"github.com/orchestr8/orchestr8-mcp/internal/loader"
	"github.com/orchestr8/orchestr8-mcp/internal/logger"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
	"github.com/orchestr8/orchestr8-mcp/internal/server"
	"github.com/orchestr8/orchestr8-mcp/internal/transport"
	"github.com/orchestr8/orchestr8-mcp/internal/watch"
)

const (
	defaultLogDir  = config.DefaultLogDir
	logFileName    = "orchestr8.log"
	rpcLogFileName = "rpc-messages.jsonl"
	logDirEnvVar   = "ORCHESTR8_LOG_DIR"
)

var (
	rootDir      string
	agentDir     string
	configFile   string
	logDir       string
	watchAgents  bool
	defaultLimit int
	debugLog     = logger.New("cmd:root")
	version      = "dev" // reported in serverInfo, overridden by SetVersion
)

var rootCmd = &cobra.Command{
	Use:   "orchestr8-mcp",
	Short: "orchestr8 agent registry MCP server",
	Long: `orchestr8-mcp serves the orchestr8 agent registry to MCP clients over stdio.
It speaks newline-delimited JSON-RPC 2.0 on stdin/stdout and answers
initialize, health and agents/query. Logs go to stderr and to --log-dir.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&rootDir, "root", "r", ".", "Workspace root")
	rootCmd.Flags().StringVarP(&agentDir, "agent-dir", "a", "", "Agent definition directory (default <root>/agents; relative paths resolve against --root)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to an optional TOML config file")
	rootCmd.Flags().StringVar(&logDir, "log-dir", getDefaultLogDir(), "Directory for the server log and the JSONL RPC log (env "+logDirEnvVar+")")
	rootCmd.Flags().BoolVar(&watchAgents, "watch", false, "Reload agent definitions when files in the agent directory change")
	rootCmd.Flags().IntVar(&defaultLimit, "default-limit", registry.DefaultLimit, "Number of agents returned by agents/query when no limit is given")

	rootCmd.AddCommand(newCompletionCmd())
}

// getDefaultLogDir returns the log directory from the environment, or the
// built-in default.
func getDefaultLogDir() string {
	if dir := os.Getenv(logDirEnvVar); dir != "" {
		return dir
	}
	return defaultLogDir
}

// resolveConfig loads the config file, if any, and applies the flags the
// user set explicitly on top of it.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		log.Printf("Reading configuration from %s...", configFile)
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("agent-dir") {
		cfg.Registry.AgentDir = agentDir
	}
	if flags.Changed("default-limit") {
		cfg.Server.DefaultLimit = defaultLimit
	}
	if flags.Changed("watch") {
		cfg.Registry.Watch = watchAgents
	}
	if flags.Changed("log-dir") || cfg.Logging.LogDir == config.DefaultLogDir {
		cfg.Logging.LogDir = logDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitFileLogger(cfg.Logging.LogDir, logFileName); err != nil {
		log.Printf("Warning: failed to initialize file logger: %v", err)
	}
	defer logger.CloseGlobalLogger()
	if err := logger.InitJSONLLogger(cfg.Logging.LogDir, rpcLogFileName); err != nil {
		log.Printf("Warning: failed to initialize JSONL RPC logger: %v", err)
	}
	defer logger.CloseJSONLLogger()

	// Handle graceful shutdown and on-demand reloads
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	reloads := make(chan struct{}, 1)
	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				select {
				case reloads <- struct{}{}:
				default:
				}
				continue
			}
			log.Printf("Received %s, shutting down...", sig)
			cancel()
			return
		}
	}()

	return runServer(ctx, cfg, rootDir, os.Stdin, os.Stdout, reloads)
}

// runServer loads the registry and serves in/out until input ends or ctx is
// cancelled. Each value on reloads triggers a reload of the agent directory.
func runServer(ctx context.Context, cfg *config.Config, root string, in io.Reader, out io.Writer, reloads <-chan struct{}) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	dir := cfg.ResolveAgentDir(absRoot)
	debugLog.Printf("Starting server: root=%s, agentDir=%s, watch=%v", absRoot, dir, cfg.Registry.Watch)

	l, err := loader.New(dir, loader.Options{ManifestQuery: cfg.Registry.ManifestQuery})
	if err != nil {
		return err
	}
	snapshot, rejections, err := l.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to load agent definitions: %w", err)
	}
	log.Printf("Loaded %d agent definition(s) from %s (%d rejected)", snapshot.Len(), dir, len(rejections))

	reg := registry.New(snapshot, registry.Options{
		Weights:      cfg.Ranking,
		DefaultLimit: cfg.Server.DefaultLimit,
	})
	monitor := health.New(nil)
	reloader := watch.NewReloader(l, reg, monitor)

	if cfg.Registry.Watch {
		w, err := watch.New(dir, cfg.Registry.WatchDebounce.Duration, reloader)
		if err != nil {
			return fmt.Errorf("failed to start agent watcher: %w", err)
		}
		defer w.Close()
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.LogError("cmd", "Agent watcher stopped: %v", err)
			}
		}()
		log.Printf("Watching %s for changes", dir)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-reloads:
				if !ok {
					return
				}
				if err := reloader.Reload("SIGHUP"); err != nil {
					log.Printf("Reload failed: %v", err)
				}
			}
		}
	}()

	srv, err := server.New(server.Config{Version: version, Registry: reg, Health: monitor})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Printf("Serving %s %s on stdio", server.ServerName, version)
	logger.LogInfo("startup", "Serving on stdio: root=%s agentDir=%s agents=%d", absRoot, dir, snapshot.Len())

	err = srv.Serve(ctx, transport.NewStdio(in, out, cfg.Server.MaxMessageBytes))
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Println("Server stopped")
	logger.LogInfo("shutdown", "Server stopped")
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version reported in serverInfo and the longer string
// printed by --version.
func SetVersion(short, full string) {
	if short != "" {
		version = short
	}
	if full == "" {
		full = version
	}
	rootCmd.Version = full
}
