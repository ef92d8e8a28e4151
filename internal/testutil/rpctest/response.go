package rpctest

import (
	"encoding/json"
	"fmt"

	"github.com/orchestr8/orchestr8-mcp/internal/server"
)

// Response is a decoded JSON-RPC response as a client sees it.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *server.Error   `json:"error,omitempty"`
}

// ParseResponse decodes one line and checks the envelope shape.
func ParseResponse(line []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, err
	}
	if resp.JSONRPC != server.JSONRPCVersion {
		return nil, fmt.Errorf("jsonrpc is %q", resp.JSONRPC)
	}
	if (resp.Result == nil) == (resp.Error == nil) {
		return nil, fmt.Errorf("response must carry exactly one of result and error")
	}
	return &resp, nil
}

// DecodeResult unmarshals the result into v.
func (r *Response) DecodeResult(v any) error {
	if r.Error != nil {
		return fmt.Errorf("response is an error: %w", r.Error)
	}
	return json.Unmarshal(r.Result, v)
}

// Code returns the error code, or 0 for a successful response.
func (r *Response) Code() int {
	if r.Error == nil {
		return 0
	}
	return r.Error.Code
}
