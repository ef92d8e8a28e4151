package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orchestr8/orchestr8-mcp/internal/logger/sanitize"
)

// JSONLLogger appends one JSON object per RPC message to a file.
type JSONLLogger struct {
	logFile   *os.File
	mu        sync.Mutex
	encoder   *json.Encoder
	sessionID string
}

var (
	globalJSONLLogger *JSONLLogger
	globalJSONLMu     sync.RWMutex
)

// JSONLRPCMessage is a single entry of the JSONL RPC log.
type JSONLRPCMessage struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Direction string `json:"direction"` // "IN" or "OUT"
	Type      string `json:"type"`      // "REQUEST" or "RESPONSE"
	Method    string `json:"method,omitempty"`
	Error     string `json:"error,omitempty"`
	Payload   any    `json:"payload"`
}

// InitJSONLLogger initializes the global JSONL logger. Every entry written by
// this process carries the same freshly generated session id.
func InitJSONLLogger(logDir, fileName string) error {
	file, err := initLogFile(logDir, fileName)
	if err != nil {
		return err
	}

	initGlobalJSONLLogger(&JSONLLogger{
		logFile:   file,
		encoder:   json.NewEncoder(file),
		sessionID: uuid.NewString(),
	})
	return nil
}

// SessionID returns the id stamped on every entry.
func (jl *JSONLLogger) SessionID() string {
	return jl.sessionID
}

// Close closes the JSONL log file.
func (jl *JSONLLogger) Close() error {
	jl.mu.Lock()
	defer jl.mu.Unlock()

	err := closeLogFile(jl.logFile, "JSONL")
	jl.logFile = nil
	return err
}

// LogMessage writes one entry and syncs it to disk.
func (jl *JSONLLogger) LogMessage(entry *JSONLRPCMessage) error {
	jl.mu.Lock()
	defer jl.mu.Unlock()

	if jl.logFile == nil {
		return fmt.Errorf("JSONL logger not initialized")
	}

	entry.SessionID = jl.sessionID
	if err := jl.encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	if err := jl.logFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}

	return nil
}

// CloseJSONLLogger closes the global JSONL logger.
func CloseJSONLLogger() error {
	return closeGlobalJSONLLogger()
}

// sanitizePayload decodes a payload and redacts secrets in it. Payloads that
// are not JSON (a peer may send anything) are kept as sanitized text.
func sanitizePayload(payload []byte) any {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return map[string]any{
			"_error": "failed to parse JSON",
			"_raw":   sanitize.SanitizeString(string(payload)),
		}
	}
	return sanitize.SanitizeValue(decoded)
}

// LogRPCMessageJSONL logs an RPC message to the global JSONL logger. It is a
// no-op when the logger is not initialized.
func LogRPCMessageJSONL(direction RPCMessageDirection, messageType RPCMessageType, method string, payload []byte, err error) {
	globalJSONLMu.RLock()
	defer globalJSONLMu.RUnlock()

	if globalJSONLLogger == nil {
		return
	}

	entry := &JSONLRPCMessage{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Direction: string(direction),
		Type:      string(messageType),
		Method:    method,
		Payload:   sanitizePayload(payload),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	// Best effort
	_ = globalJSONLLogger.LogMessage(entry)
}
