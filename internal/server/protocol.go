package server

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only protocol version accepted in the envelope.
const JSONRPCVersion = "2.0"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Method is one of the methods the server routes. The set is closed: anything
// else is reported as method not found.
type Method int

const (
	MethodInitialize Method = iota + 1
	MethodHealth
	MethodAgentsQuery
)

var methodNames = map[Method]string{
	MethodInitialize:  "initialize",
	MethodHealth:      "health",
	MethodAgentsQuery: "agents/query",
}

var methodsByName = func() map[string]Method {
	m := make(map[string]Method, len(methodNames))
	for method, name := range methodNames {
		m[name] = method
	}
	return m
}()

// ParseMethod resolves a wire method name.
func ParseMethod(name string) (Method, bool) {
	m, ok := methodsByName[name]
	return m, ok
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Error is a JSON-RPC error object. It doubles as a Go error so handlers can
// return protocol errors directly.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

func newError(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// ErrParse and friends build the five error kinds with their standard
// messages.
func ErrParse() *Error { return newError(CodeParseError, "Parse error", nil) }

func ErrInvalidRequest(detail string) *Error {
	return newError(CodeInvalidRequest, "Invalid request", optional(detail))
}

func ErrMethodNotFound(method string) *Error {
	return newError(CodeMethodNotFound, "Method not found", optional(method))
}

func ErrInvalidParams(detail string) *Error {
	return newError(CodeInvalidParams, "Invalid params", optional(detail))
}

// ErrInternal never carries detail; the cause is logged, not sent.
func ErrInternal() *Error { return newError(CodeInternalError, "Internal error", nil) }

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set. A
// nil ID encodes as null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func resultResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: err}
}
