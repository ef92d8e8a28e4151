package logger

import (
	"fmt"
	"strings"
)

// formatRPCMessage renders a message on one line:
//
//	client→agents/query 61b {"jsonrpc":"2.0",...}
//	client←resp 120b err:Method not found {...}
func formatRPCMessage(info *RPCMessageInfo) string {
	dir := "→"
	if info.Direction == RPCDirectionOutbound {
		dir = "←"
	}

	var parts []string
	if info.MessageType == RPCMessageRequest && info.Method != "" {
		parts = append(parts, fmt.Sprintf("client%s%s", dir, info.Method))
	} else if info.MessageType == RPCMessageRequest {
		parts = append(parts, fmt.Sprintf("client%s?", dir))
	} else {
		parts = append(parts, fmt.Sprintf("client%sresp", dir))
	}

	parts = append(parts, fmt.Sprintf("%db", info.PayloadSize))

	if info.Error != "" {
		parts = append(parts, fmt.Sprintf("err:%s", info.Error))
	}
	if info.Payload != "" {
		parts = append(parts, info.Payload)
	}

	return strings.Join(parts, " ")
}
