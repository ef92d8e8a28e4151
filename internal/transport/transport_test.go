package transport

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveAll(t *testing.T, s *Stdio) []string {
	t.Helper()
	var lines []string
	for {
		line, err := s.Receive()
		if errors.Is(err, io.EOF) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, string(line))
	}
}

func TestReceive(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single line", "{\"id\":1}\n", []string{`{"id":1}`}},
		{"multiple lines", "{\"id\":1}\n{\"id\":2}\n", []string{`{"id":1}`, `{"id":2}`}},
		{"crlf terminators", "{\"id\":1}\r\n{\"id\":2}\r\n", []string{`{"id":1}`, `{"id":2}`}},
		{"blank lines skipped", "\n  \n{\"id\":1}\n\n", []string{`{"id":1}`}},
		{"final line without newline", "{\"id\":1}\n{\"id\":2}", []string{`{"id":1}`, `{"id":2}`}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStdio(strings.NewReader(tt.input), io.Discard, 0)
			assert.Equal(t, tt.want, receiveAll(t, s))
		})
	}
}

func TestReceive_LongLineWithinLimit(t *testing.T) {
	// longer than bufio's default 4096-byte buffer
	long := `{"context":"` + strings.Repeat("a", 10000) + `"}`
	s := NewStdio(strings.NewReader(long+"\n"), io.Discard, 0)

	line, err := s.Receive()
	require.NoError(t, err)
	assert.Equal(t, long, string(line))
}

func TestReceive_OversizedLineIsSkipped(t *testing.T) {
	input := strings.Repeat("x", 10000) + "\n" + `{"id":2}` + "\n"
	s := NewStdio(strings.NewReader(input), io.Discard, 100)

	_, err := s.Receive()
	assert.ErrorIs(t, err, ErrMessageTooLarge)

	line, err := s.Receive()
	require.NoError(t, err)
	assert.Equal(t, `{"id":2}`, string(line))

	_, err = s.Receive()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReceive_LimitExcludesNewline(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"at limit with newline", strings.Repeat("x", 10) + "\n", nil},
		{"at limit without newline", strings.Repeat("x", 10), nil},
		{"over limit with newline", strings.Repeat("x", 11) + "\n", ErrMessageTooLarge},
		{"over limit without newline", strings.Repeat("x", 11), ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStdio(strings.NewReader(tt.input), io.Discard, 10)
			line, err := s.Receive()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, line, 10)
		})
	}
}

func TestSend_WritesOneLinePerMessage(t *testing.T) {
	var out bytes.Buffer
	s := NewStdio(strings.NewReader(""), &out, 0)

	require.NoError(t, s.Encode(map[string]any{"jsonrpc": "2.0", "id": 1}))
	require.NoError(t, s.Send([]byte(`{"jsonrpc":"2.0","id":2}`)))

	assert.Equal(t, "{\"id\":1,\"jsonrpc\":\"2.0\"}\n{\"jsonrpc\":\"2.0\",\"id\":2}\n", out.String())
}

func TestSend_FlushesBufferedWriter(t *testing.T) {
	var out bytes.Buffer
	buffered := bufio.NewWriterSize(&out, 64*1024)
	s := NewStdio(strings.NewReader(""), buffered, 0)

	require.NoError(t, s.Encode(map[string]int{"id": 1}))
	assert.Equal(t, "{\"id\":1}\n", out.String(), "message must be visible without an explicit flush")
}

func TestSend_UnencodableMessage(t *testing.T) {
	s := NewStdio(strings.NewReader(""), io.Discard, 0)
	err := s.Encode(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestSend_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var out bytes.Buffer
	s := NewStdio(strings.NewReader(""), &out, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Encode(map[string]string{"payload": strings.Repeat("z", 500)}))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 50)
	for _, line := range lines {
		assert.Equal(t, `{"payload":"`+strings.Repeat("z", 500)+`"}`, line)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestSend_WriteError(t *testing.T) {
	s := NewStdio(strings.NewReader(""), failingWriter{}, 0)
	err := s.Send([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}
