// Package rpctest drives a server over in-memory stdio pipes, the same way a
// client process would drive the binary over its stdin and stdout.
package rpctest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/orchestr8/orchestr8-mcp/internal/health"
	"github.com/orchestr8/orchestr8-mcp/internal/registry"
	"github.com/orchestr8/orchestr8-mcp/internal/server"
	"github.com/orchestr8/orchestr8-mcp/internal/transport"
)

// DefaultTimeout bounds every wait on the server.
const DefaultTimeout = 5 * time.Second

// Config describes the server under test.
type Config struct {
	Version         string
	Agents          []registry.AgentDefinition
	Options         registry.Options
	Health          *health.Monitor
	MaxMessageBytes int
}

// Driver owns a running server and the client ends of its pipes.
type Driver struct {
	t        testing.TB
	registry *registry.Registry
	health   *health.Monitor

	stdin     *io.PipeWriter
	stdout    *io.PipeReader
	responses chan []byte
	serveErr  chan error
	cancel    context.CancelFunc

	mu     sync.Mutex
	nextID int
	closed bool
}

// NewDriver starts a server for cfg. It is stopped when the test ends.
func NewDriver(t testing.TB, cfg Config) *Driver {
	t.Helper()

	snapshot, rejections := registry.NewSnapshot(cfg.Agents)
	for _, r := range rejections {
		t.Logf("[rpctest] rejected agent: %s", r)
	}
	reg := registry.New(snapshot, cfg.Options)

	monitor := cfg.Health
	if monitor == nil {
		monitor = health.New(func() (uint64, error) { return 32 << 20, nil })
	}

	srv, err := server.New(server.Config{Version: cfg.Version, Registry: reg, Health: monitor})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}

	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	d := &Driver{
		t:         t,
		registry:  reg,
		health:    monitor,
		stdin:     clientOut,
		stdout:    clientIn,
		responses: make(chan []byte, 64),
		serveErr:  make(chan error, 1),
		cancel:    cancel,
	}

	go func() {
		err := srv.Serve(ctx, transport.NewStdio(serverIn, serverOut, cfg.MaxMessageBytes))
		serverOut.Close()
		d.serveErr <- err
	}()
	go d.readResponses()

	t.Cleanup(d.stop)
	return d
}

func (d *Driver) readResponses() {
	defer close(d.responses)
	scanner := bufio.NewScanner(d.stdout)
	scanner.Buffer(make([]byte, 64*1024), transport.DefaultMaxMessageBytes*2)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		d.responses <- line
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[rpctest] stdout reader stopped: %v", err)
	}
}

// Registry returns the registry the server queries.
func (d *Driver) Registry() *registry.Registry { return d.registry }

// Health returns the server's health monitor.
func (d *Driver) Health() *health.Monitor { return d.health }

// SendLine writes one raw line to the server's stdin.
func (d *Driver) SendLine(line string) {
	d.t.Helper()
	if _, err := io.WriteString(d.stdin, line+"\n"); err != nil {
		d.t.Fatalf("write to server: %v", err)
	}
}

// Recv waits for the next line the server writes.
func (d *Driver) Recv() ([]byte, error) {
	select {
	case line, ok := <-d.responses:
		if !ok {
			return nil, io.EOF
		}
		return line, nil
	case <-time.After(DefaultTimeout):
		return nil, errors.New("timed out waiting for response")
	}
}

// ExpectSilence fails the test if the server writes anything within wait.
func (d *Driver) ExpectSilence(wait time.Duration) {
	d.t.Helper()
	select {
	case line, ok := <-d.responses:
		if ok {
			d.t.Fatalf("expected no output, got %s", line)
		}
	case <-time.After(wait):
	}
}

// Call sends a request with a fresh numeric id and returns the decoded
// response.
func (d *Driver) Call(method string, params any) *Response {
	d.t.Helper()

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.mu.Unlock()

	req := map[string]any{"jsonrpc": "2.0", "method": method, "id": id}
	if params != nil {
		req["params"] = params
	}
	data, err := json.Marshal(req)
	if err != nil {
		d.t.Fatalf("encode request: %v", err)
	}

	d.SendLine(string(data))
	resp := d.RecvResponse()
	if string(resp.ID) != fmt.Sprint(id) {
		d.t.Fatalf("response id %s does not match request id %d", resp.ID, id)
	}
	return resp
}

// RecvResponse waits for and decodes the next response.
func (d *Driver) RecvResponse() *Response {
	d.t.Helper()
	line, err := d.Recv()
	if err != nil {
		d.t.Fatalf("receive: %v", err)
	}
	resp, err := ParseResponse(line)
	if err != nil {
		d.t.Fatalf("decode %s: %v", line, err)
	}
	return resp
}

// CloseInput closes the server's stdin and waits for the serve loop to end.
func (d *Driver) CloseInput() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.stdin.Close()
	select {
	case err := <-d.serveErr:
		return err
	case <-time.After(DefaultTimeout):
		return errors.New("timed out waiting for server to stop")
	}
}

func (d *Driver) stop() {
	if err := d.CloseInput(); err != nil {
		log.Printf("[rpctest] stop: %v", err)
	}
	d.cancel()
	d.stdout.Close()
}
