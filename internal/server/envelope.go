package server

import (
	"bytes"
	"encoding/json"
)

// request is a validated JSON-RPC envelope.
type request struct {
	ID     json.RawMessage // nil for notifications
	HasID  bool
	Method string
	Params json.RawMessage // nil when absent or null
}

// recoverID extracts the top-level id from a malformed message when the text
// up to the syntax error still carries one, or returns nil (encoded as null).
// Members nested inside params or other values are never considered.
func recoverID(line []byte) json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var found json.RawMessage
	depth := 1
	expectKey := true
	isID := false
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return found
		}

		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				if depth == 1 {
					// a composite member value; the next top-level token is a key
					isID = false
					expectKey = true
				}
				depth++
			default:
				depth--
				if depth == 0 {
					return found
				}
			}
			continue
		}
		if depth != 1 {
			continue
		}

		if expectKey {
			key, _ := tok.(string)
			isID = key == "id"
			expectKey = false
			continue
		}
		if isID {
			raw := bytes.TrimSpace(line[start:dec.InputOffset()])
			raw = bytes.TrimSpace(bytes.TrimPrefix(raw, []byte(":")))
			if json.Valid(raw) && validID(raw) {
				found = json.RawMessage(bytes.Clone(raw))
			}
		}
		isID = false
		expectKey = true
	}
}

// validID reports whether raw is a string, a number or null.
func validID(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	switch c := raw[0]; {
	case c == '"':
		return true
	case c == '-' || (c >= '0' && c <= '9'):
		return true
	case bytes.Equal(raw, []byte("null")):
		return true
	}
	return false
}

// decodeEnvelope parses one line. On failure it returns the error to send and
// the id to send it with.
func decodeEnvelope(line []byte) (*request, json.RawMessage, *Error) {
	if !json.Valid(line) {
		return nil, recoverID(line), ErrParse()
	}

	trimmed := bytes.TrimSpace(line)
	switch trimmed[0] {
	case '{':
	case '[':
		return nil, nil, ErrInvalidRequest("batch requests are not supported")
	default:
		return nil, nil, ErrInvalidRequest("request must be a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, nil, ErrInvalidRequest("request must be a JSON object")
	}

	req := &request{}
	if raw, ok := fields["id"]; ok {
		if !validID(raw) {
			return nil, nil, ErrInvalidRequest("id must be a string, a number or null")
		}
		req.ID = raw
		req.HasID = true
	}

	var version string
	if raw, ok := fields["jsonrpc"]; !ok || json.Unmarshal(raw, &version) != nil || version != JSONRPCVersion {
		return nil, req.ID, ErrInvalidRequest(`jsonrpc must be "2.0"`)
	}

	raw, ok := fields["method"]
	if !ok || json.Unmarshal(raw, &req.Method) != nil || req.Method == "" {
		return nil, req.ID, ErrInvalidRequest("method must be a non-empty string")
	}

	if raw, ok := fields["params"]; ok && !bytes.Equal(raw, []byte("null")) {
		req.Params = raw
	}

	return req, req.ID, nil
}
