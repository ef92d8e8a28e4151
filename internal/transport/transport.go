// Package transport frames JSON-RPC messages as newline-delimited JSON over a
// pair of byte streams, normally the process's stdin and stdout.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
)

var logTransport = logger.New("transport:stdio")

// DefaultMaxMessageBytes bounds a single inbound line.
const DefaultMaxMessageBytes = 4 * 1024 * 1024

// ErrMessageTooLarge is returned by Receive for a line over the size limit.
// The line has been consumed; the next Receive reads the following line.
var ErrMessageTooLarge = errors.New("message exceeds maximum size")

// flusher is implemented by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// Stdio reads one message per line and writes one message per line.
type Stdio struct {
	reader   *bufio.Reader
	maxBytes int

	mu     sync.Mutex
	writer io.Writer
}

// NewStdio creates a transport over in and out. maxBytes <= 0 selects
// DefaultMaxMessageBytes.
func NewStdio(in io.Reader, out io.Writer, maxBytes int) *Stdio {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxMessageBytes
	}
	return &Stdio{
		reader:   bufio.NewReader(in),
		maxBytes: maxBytes,
		writer:   out,
	}
}

// Receive blocks until a complete non-blank line is available and returns it
// without its terminator. It returns io.EOF once the peer closes the stream;
// a final line without a newline is still delivered first.
func (s *Stdio) Receive() ([]byte, error) {
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, err
		}
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		logTransport.Printf("Received message: %d bytes", len(line))
		return line, nil
	}
}

func (s *Stdio) readLine() ([]byte, error) {
	var line []byte
	oversized := false
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if !oversized {
			n := len(chunk)
			if err == nil {
				n-- // the terminator does not count toward the limit
			}
			if len(line)+n > s.maxBytes {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			if oversized {
				logTransport.Printf("Dropped oversized message (limit %d bytes)", s.maxBytes)
				return nil, ErrMessageTooLarge
			}
			return bytes.TrimSuffix(line, []byte("\n")), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if oversized {
				return nil, ErrMessageTooLarge
			}
			if len(line) > 0 {
				return line, nil
			}
			return nil, io.EOF
		default:
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
	}
}

// Encode marshals msg and sends it as a single line.
func (s *Stdio) Encode(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return s.Send(data)
}

// Send writes an encoded message followed by a newline and flushes it.
// Concurrent calls are serialized so lines never interleave.
func (s *Stdio) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')

	if _, err := s.writer.Write(buf); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if f, ok := s.writer.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush message: %w", err)
		}
	}
	logTransport.Printf("Sent message: %d bytes", len(data))
	return nil
}
