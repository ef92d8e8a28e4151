package server

import (
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
)

var logHandlers = logger.New("server:handlers")

// ProtocolVersion is the MCP protocol revision reported by initialize.
const ProtocolVersion = "2024-11-05"

// ServerName is reported in serverInfo.
const ServerName = "orchestr8-mcp-server"

// InitializeResult is the initialize response payload.
type InitializeResult struct {
	ProtocolVersion string              `json:"protocolVersion"`
	ServerInfo      *sdk.Implementation `json:"serverInfo"`
	Capabilities    map[string]any      `json:"capabilities"`
}

// AgentsQueryResult is the agents/query response payload.
type AgentsQueryResult struct {
	Agents []registry.AgentDefinition `json:"agents"`
}

func (s *Server) handleInitialize(json.RawMessage) (any, error) {
	logHandlers.Printf("initialize: server=%s version=%s", s.info.Name, s.info.Version)
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      s.info,
		Capabilities:    map[string]any{},
	}, nil
}

func (s *Server) handleHealth(json.RawMessage) (any, error) {
	status := s.health.Status()
	logHandlers.Printf("health: status=%s uptime_ms=%d memory_mb=%.2f", status.Status, status.UptimeMS, status.MemoryMB)
	return status, nil
}

func (s *Server) handleAgentsQuery(raw json.RawMessage) (any, error) {
	var params agentsQueryParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, ErrInvalidParams(fmt.Sprintf("params could not be decoded: %v", err))
	}

	limit, err := params.limit(s.registry.DefaultLimit())
	if err != nil {
		return nil, ErrInvalidParams(err.Error())
	}
	agents := s.registry.Query(params.Context, limit)
	logHandlers.Printf("agents/query: context=%q limit=%d returned=%d", params.Context, limit, len(agents))
	return &AgentsQueryResult{Agents: agents}, nil
}
