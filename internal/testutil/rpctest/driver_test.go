package rpctest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestr8/orchestr8-mcp/internal/health"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
	"github.com/orchestr8/orchestr8-mcp/internal/server"
	"github.com/orchestr8/orchestr8-mcp/internal/testutil/rpctest"
)

func sampleAgents() []registry.AgentDefinition {
	return []registry.AgentDefinition{
		{Name: "react-specialist", Description: "React components and hooks", ContextTags: []string{"react", "frontend"}},
		{Name: "nextjs-expert", Description: "Server rendering with Next.js", ContextTags: []string{"react", "nextjs"}},
		{Name: "vue-expert", Description: "Vue apps", ContextTags: []string{"vue", "frontend"}},
		{Name: "go-developer", Description: "Go services", ContextTags: []string{"go"}},
	}
}

// TestSession walks through a full client session the way an MCP host would.
func TestSession(t *testing.T) {
	d := rpctest.NewDriver(t, rpctest.Config{Version: "0.9.0", Agents: sampleAgents()})

	initResp := d.Call("initialize", map[string]any{})
	require.Nil(t, initResp.Error)
	var initResult server.InitializeResult
	require.NoError(t, initResp.DecodeResult(&initResult))
	assert.Equal(t, server.ProtocolVersion, initResult.ProtocolVersion)
	assert.Equal(t, "orchestr8-mcp-server", initResult.ServerInfo.Name)
	assert.Equal(t, "0.9.0", initResult.ServerInfo.Version)

	d.SendLine(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	query := d.Call("agents/query", map[string]any{"context": "react", "limit": 5})
	var agents server.AgentsQueryResult
	require.NoError(t, query.DecodeResult(&agents))
	require.Len(t, agents.Agents, 2)
	assert.Equal(t, "react-specialist", agents.Agents[0].Name)
	assert.Equal(t, "nextjs-expert", agents.Agents[1].Name)

	status := d.Call("health", nil)
	var hs health.Status
	require.NoError(t, status.DecodeResult(&hs))
	assert.Equal(t, health.StatusHealthy, hs.Status)

	bogus := d.Call("bogus", nil)
	assert.Equal(t, server.CodeMethodNotFound, bogus.Code())

	d.SendLine("not json")
	parseErr := d.RecvResponse()
	assert.Equal(t, server.CodeParseError, parseErr.Code())
	assert.Equal(t, "null", string(parseErr.ID))

	// still responsive after a parse error
	again := d.Call("health", map[string]any{})
	assert.Nil(t, again.Error)

	require.NoError(t, d.CloseInput())
}

func TestNotificationsProduceNoOutput(t *testing.T) {
	d := rpctest.NewDriver(t, rpctest.Config{Agents: sampleAgents()})

	d.SendLine(`{"jsonrpc":"2.0","method":"health"}`)
	d.SendLine(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`)
	d.ExpectSilence(100 * time.Millisecond)
}

func TestResponsesFollowRequestOrder(t *testing.T) {
	d := rpctest.NewDriver(t, rpctest.Config{Agents: sampleAgents()})

	lines := []string{
		`{"jsonrpc":"2.0","method":"health","id":"a"}`,
		`{"jsonrpc":"2.0","method":"agents/query","params":{"context":"go"},"id":"b"}`,
		`{"jsonrpc":"2.0","method":"nope","id":"c"}`,
		`{"jsonrpc":"2.0","method":"initialize","id":"d"}`,
	}
	for _, l := range lines {
		d.SendLine(l)
	}

	var ids []string
	for range lines {
		ids = append(ids, string(d.RecvResponse().ID))
	}
	assert.Equal(t, []string{`"a"`, `"b"`, `"c"`, `"d"`}, ids)
}

func TestOversizedMessage(t *testing.T) {
	d := rpctest.NewDriver(t, rpctest.Config{Agents: sampleAgents(), MaxMessageBytes: 256})

	big := `{"jsonrpc":"2.0","method":"agents/query","params":{"context":"` + strings.Repeat("x", 1024) + `"},"id":1}`
	d.SendLine(big)
	resp := d.RecvResponse()
	assert.Equal(t, server.CodeInvalidRequest, resp.Code())
	assert.Equal(t, "null", string(resp.ID))

	ok := d.Call("health", nil)
	assert.Nil(t, ok.Error)
}

func TestRegistryReplaceIsVisible(t *testing.T) {
	d := rpctest.NewDriver(t, rpctest.Config{Agents: sampleAgents()})

	before := d.Call("agents/query", map[string]any{"context": "rust"})
	var r1 server.AgentsQueryResult
	require.NoError(t, before.DecodeResult(&r1))
	assert.Empty(t, r1.Agents)

	snapshot, _ := registry.NewSnapshot(append(sampleAgents(), registry.AgentDefinition{
		Name: "rust-engineer", Description: "Systems work in Rust", ContextTags: []string{"rust"},
	}))
	d.Registry().Replace(snapshot)

	after := d.Call("agents/query", map[string]any{"context": "rust"})
	var r2 server.AgentsQueryResult
	require.NoError(t, after.DecodeResult(&r2))
	require.Len(t, r2.Agents, 1)
	assert.Equal(t, "rust-engineer", r2.Agents[0].Name)
}

func TestDegradedHealth(t *testing.T) {
	d := rpctest.NewDriver(t, rpctest.Config{Agents: sampleAgents()})

	d.Health().SetDegraded("reload failed")
	var hs health.Status
	require.NoError(t, d.Call("health", nil).DecodeResult(&hs))
	assert.Equal(t, health.StatusDegraded, hs.Status)

	d.Health().ClearDegraded()
	require.NoError(t, d.Call("health", nil).DecodeResult(&hs))
	assert.Equal(t, health.StatusHealthy, hs.Status)
}
