// Package server implements the JSON-RPC dispatcher: envelope validation,
// method routing, parameter validation and the serve loop over a line
// transport.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync/atomic"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/orchestr8/orchestr8-mcp/internal/health"
	"github.com/orchestr8/orchestr8-mcp/internal/logger"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
	"github.com/orchestr8/orchestr8-mcp/internal/transport"
)

var logServer = logger.New("server:server")

// State is the dispatcher lifecycle state.
type State int32

const (
	StateUnstarted State = iota
	StateServing
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateServing:
		return "serving"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Transport moves whole messages. Receive returns io.EOF once the peer has
// closed its side.
type Transport interface {
	Receive() ([]byte, error)
	Send(data []byte) error
}

// Config holds the collaborators of a Server.
type Config struct {
	Version  string
	Registry *registry.Registry
	Health   *health.Monitor
}

// Server dispatches one message at a time.
type Server struct {
	registry *registry.Registry
	health   *health.Monitor
	info     *sdk.Implementation
	schemas  paramSchemas
	state    atomic.Int32
}

// New creates a Server. Registry and Health are required.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("server: registry is required")
	}
	if cfg.Health == nil {
		return nil, errors.New("server: health monitor is required")
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("failed to load parameter schemas: %w", err)
	}

	logServer.Printf("Creating server: name=%s version=%s agents=%d", ServerName, version, cfg.Registry.Snapshot().Len())
	return &Server{
		registry: cfg.Registry,
		health:   cfg.Health,
		info:     &sdk.Implementation{Name: ServerName, Version: version},
		schemas:  schemas,
	}, nil
}

// State reports whether the server has seen its first message.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Serve reads messages from t until the peer closes input or ctx is
// cancelled. Each response is written before the next message is read.
// A clean end of input returns nil.
func (s *Server) Serve(ctx context.Context, t Transport) error {
	type received struct {
		line []byte
		err  error
	}
	next := make(chan received, 1)

	for {
		go func() {
			line, err := t.Receive()
			next <- received{line: line, err: err}
		}()

		var r received
		select {
		case <-ctx.Done():
			logServer.Print("Context cancelled, stopping serve loop")
			return ctx.Err()
		case r = <-next:
		}

		var out []byte
		switch {
		case r.err == nil:
			out = s.HandleMessage(r.line)
		case errors.Is(r.err, io.EOF):
			logServer.Print("Input closed, stopping serve loop")
			return nil
		case errors.Is(r.err, transport.ErrMessageTooLarge):
			logger.LogWarn("server", "Rejected oversized message: %v", r.err)
			out = s.encode(errorResponse(nil, ErrInvalidRequest("message too large")), "")
		default:
			return fmt.Errorf("failed to read message: %w", r.err)
		}

		if out == nil {
			continue
		}
		if err := t.Send(out); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
}

// HandleMessage processes one raw message and returns the encoded response,
// or nil when the message was a notification.
func (s *Server) HandleMessage(line []byte) []byte {
	if s.state.CompareAndSwap(int32(StateUnstarted), int32(StateServing)) {
		logServer.Print("First message received, serving")
	}

	req, id, envErr := decodeEnvelope(line)
	method := ""
	if req != nil {
		method = req.Method
	}
	logger.LogRPCRequest(logger.RPCDirectionInbound, method, line)

	if envErr != nil {
		logServer.Printf("Rejected message: %v", envErr)
		return s.encode(errorResponse(id, envErr), method)
	}

	resp := s.dispatch(req)
	if !req.HasID {
		if resp.Error != nil {
			logServer.Printf("Notification %s dropped: %v", req.Method, resp.Error)
		}
		return nil
	}
	return s.encode(resp, method)
}

func (s *Server) dispatch(req *request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogError("server", "Panic while handling %s: %v\n%s", req.Method, r, debug.Stack())
			resp = errorResponse(req.ID, ErrInternal())
		}
	}()

	method, ok := ParseMethod(req.Method)
	if !ok {
		return errorResponse(req.ID, ErrMethodNotFound(req.Method))
	}
	if paramErr := s.schemas.validate(method, req.Params); paramErr != nil {
		return errorResponse(req.ID, paramErr)
	}

	var handler func(json.RawMessage) (any, error)
	switch method {
	case MethodInitialize:
		handler = s.handleInitialize
	case MethodHealth:
		handler = s.handleHealth
	case MethodAgentsQuery:
		handler = s.handleAgentsQuery
	default:
		return errorResponse(req.ID, ErrMethodNotFound(req.Method))
	}

	result, err := handler(req.Params)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return errorResponse(req.ID, rpcErr)
		}
		logger.LogError("server", "Handler for %s failed: %v", req.Method, err)
		return errorResponse(req.ID, ErrInternal())
	}
	return resultResponse(req.ID, result)
}

// encode marshals resp, degrading to an internal error if the result cannot
// be encoded.
func (s *Server) encode(resp *Response, method string) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.LogError("server", "Failed to encode response for %s: %v", method, err)
		resp = errorResponse(resp.ID, ErrInternal())
		data, err = json.Marshal(resp)
		if err != nil {
			// id is the only variable part left; fall back to null
			data, _ = json.Marshal(errorResponse(nil, ErrInternal()))
		}
	}

	var respErr error
	if resp.Error != nil {
		respErr = resp.Error
	}
	logger.LogRPCResponse(logger.RPCDirectionOutbound, method, data, respErr)
	return data
}
