// Package watch keeps the served agent snapshot in step with the agent
// directory, either on demand (SIGHUP) or by watching the tree for changes.
package watch

import (
	"fmt"
	"log"
	"sync"

	"github.com/orchestr8/orchestr8-mcp/internal/health"
	"github.com/orchestr8/orchestr8-mcp/internal/loader"
	"github.com/orchestr8/orchestr8-mcp/internal/logger"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
)

var logReload = logger.New("watch:reload")

// Reloader reloads the agent directory into a registry. A failed reload
// leaves the previous snapshot in place and marks health degraded until the
// next successful one.
type Reloader struct {
	loader   *loader.Loader
	registry *registry.Registry
	health   *health.Monitor

	mu sync.Mutex
}

// NewReloader creates a Reloader.
func NewReloader(l *loader.Loader, r *registry.Registry, h *health.Monitor) *Reloader {
	return &Reloader{loader: l, registry: r, health: h}
}

// Reload loads the directory and installs the result. reason is only used for
// logging.
func (r *Reloader) Reload(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logReload.Printf("Reloading agents from %s (%s)", r.loader.Dir(), reason)
	snapshot, rejections, err := r.loader.Snapshot()
	if err != nil {
		r.health.SetDegraded(fmt.Sprintf("agent reload failed: %v", err))
		logger.LogError("watch", "Agent reload (%s) failed, keeping previous snapshot: %v", reason, err)
		return fmt.Errorf("reload agents: %w", err)
	}

	old := r.registry.Replace(snapshot)
	r.health.ClearDegraded()

	log.Printf("Reloaded agent definitions (%s): %d -> %d agents, %d rejected", reason, old.Len(), snapshot.Len(), len(rejections))
	logger.LogInfo("watch", "Reloaded agents (%s): previous=%d current=%d rejected=%d", reason, old.Len(), snapshot.Len(), len(rejections))
	return nil
}
