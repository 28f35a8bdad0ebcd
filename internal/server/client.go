package server

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// Client sends requests to a running project server.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the server at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    30 * time.Second, // Checks can take several tool runs
	}
}

// SetTimeout sets the per-request deadline.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Send delivers a request and waits for the response.
func (c *Client) Send(req Request) (*Response, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to project server (is it running?): %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	decoder := json.NewDecoder(conn)
	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &resp, nil
}

// Health probes the server and returns its health data.
func (c *Client) Health() (*HealthData, error) {
	resp, err := c.Send(Request{Type: RequestHealth})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("health check failed: %s", resp.Message)
	}
	// Round-trip through JSON to convert the loosely-typed Data map.
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode health data: %w", err)
	}
	var health HealthData
	if err := json.Unmarshal(raw, &health); err != nil {
		return nil, fmt.Errorf("failed to decode health data: %w", err)
	}
	return &health, nil
}

// Diagnostics requests project-wide diagnostics grouped by tool.
func (c *Client) Diagnostics(force bool) (*Response, error) {
	return c.Send(Request{Type: RequestDiagnostics, Force: force})
}

// DiagnosticsFile requests diagnostics for exactly one file.
func (c *Client) DiagnosticsFile(file string, force bool) (*Response, error) {
	return c.Send(Request{Type: RequestDiagnosticsFile, File: file, Force: force})
}

// CheckAndDisplay requests diagnostics for one file with the
// notification suppression window consulted: Response.Displayed tells
// the caller whether to print the result or stay quiet.
func (c *Client) CheckAndDisplay(file string, force bool) (*Response, error) {
	return c.Send(Request{Type: RequestDiagnosticsFile, File: file, Force: force, Notify: true})
}

// ResetDedup clears the server's diagnostics cache and notification
// suppression window.
func (c *Client) ResetDedup() (*Response, error) {
	return c.Send(Request{Type: RequestResetDedup})
}

// Shutdown asks the server to stop gracefully.
func (c *Client) Shutdown() (*Response, error) {
	return c.Send(Request{Type: RequestShutdown})
}
