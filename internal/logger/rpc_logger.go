package logger

// RPC message logging. Every message crossing the stdio transport is written
// twice: as a compact line to the text log (rpc_formatter.go) and as a full,
// sanitized object to the JSONL log (jsonl_logger.go).
//
//	logger.LogRPCRequest(logger.RPCDirectionInbound, "agents/query", line)
//	logger.LogRPCResponse(logger.RPCDirectionOutbound, "agents/query", encoded, nil)

// RPCMessageType distinguishes requests from responses.
type RPCMessageType string

const (
	RPCMessageRequest  RPCMessageType = "REQUEST"
	RPCMessageResponse RPCMessageType = "RESPONSE"
)

// RPCMessageDirection tells whether a message entered or left the server.
type RPCMessageDirection string

const (
	RPCDirectionInbound  RPCMessageDirection = "IN"
	RPCDirectionOutbound RPCMessageDirection = "OUT"
)

// MaxPayloadPreviewLength caps the payload preview in the text log (10KB).
const MaxPayloadPreviewLength = 10 * 1024

// RPCMessageInfo is the text-log view of one message.
type RPCMessageInfo struct {
	Direction   RPCMessageDirection
	MessageType RPCMessageType
	Method      string
	PayloadSize int
	Payload     string // sanitized, truncated preview
	Error       string
}

func logRPCMessage(direction RPCMessageDirection, messageType RPCMessageType, method string, payload []byte, err error) {
	info := &RPCMessageInfo{
		Direction:   direction,
		MessageType: messageType,
		Method:      method,
		PayloadSize: len(payload),
		Payload:     truncateAndSanitize(string(payload), MaxPayloadPreviewLength),
	}
	if err != nil {
		info.Error = err.Error()
	}

	LogDebug("rpc", "%s", formatRPCMessage(info))
	LogRPCMessageJSONL(direction, messageType, method, payload, err)
}

// LogRPCRequest logs a request. method may be empty when the line could not
// be parsed.
func LogRPCRequest(direction RPCMessageDirection, method string, payload []byte) {
	logRPCMessage(direction, RPCMessageRequest, method, payload, nil)
}

// LogRPCResponse logs a response; err carries the JSON-RPC error, if any.
func LogRPCResponse(direction RPCMessageDirection, method string, payload []byte, err error) {
	logRPCMessage(direction, RPCMessageResponse, method, payload, err)
}
