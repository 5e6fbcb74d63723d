// Package robot talks to the robot hardware bridge over a websocket
// command/ack protocol.
package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"genesisbridge/pkg/logger"
)

// Message types on the wire.
const (
	TypeCommand     = "command"
	TypeAck         = "ack"
	TypeError       = "error"
	TypeStatus      = "status"
	TypeVisionFrame = "vision_frame"
)

const commandTimeout = 15 * time.Second

type Command struct {
	Type      string                 `json:"type"`
	Command   string                 `json:"command"`
	Params    map[string]interface{} `json:"params"`
	Timestamp int64                  `json:"timestamp"`
}

type Response struct {
	Type    string                 `json:"type"`
	Command string                 `json:"command,omitempty"`
	Status  map[string]interface{} `json:"status,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Raw     map[string]interface{} `json:"-"`
}

// Client issues one command at a time over a single websocket connection and
// waits for the paired response.
type Client struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(url string) *Client {
	return &Client{url: url}
}

// Connect dials the robot bridge. Safe to call again after a failure.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial robot bridge %s: %w", c.url, err)
	}
	c.conn = conn
	logger.InfoCF("robot", "Connected to robot bridge", map[string]interface{}{
		"url": c.url,
	})
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// SendCommand writes one command and reads its response. The connection is
// dropped on transport errors so the next call reconnects.
func (c *Client) SendCommand(ctx context.Context, command string, params map[string]interface{}) (*Response, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, fmt.Errorf("robot bridge not connected")
	}

	deadline := time.Now().Add(commandTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	c.conn.SetReadDeadline(deadline)

	msg := Command{
		Type:      TypeCommand,
		Command:   command,
		Params:    params,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("send robot command: %w", err)
	}

	var raw map[string]interface{}
	if err := c.conn.ReadJSON(&raw); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("read robot response: %w", err)
	}

	resp := &Response{Raw: raw}
	if t, ok := raw["type"].(string); ok {
		resp.Type = t
	}
	if cmd, ok := raw["command"].(string); ok {
		resp.Command = cmd
	}
	if e, ok := raw["error"].(string); ok {
		resp.Error = e
	}
	if s, ok := raw["status"].(map[string]interface{}); ok {
		resp.Status = s
	}
	if resp.Type == TypeError {
		return resp, fmt.Errorf("robot error: %s", resp.Error)
	}
	return resp, nil
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Move translates a direction into the bridge's move/turn commands.
func (c *Client) Move(ctx context.Context, direction string, amount float64) (*Response, error) {
	switch direction {
	case "forward", "backward":
		return c.SendCommand(ctx, "move_"+direction, map[string]interface{}{"distance": amount})
	case "left", "right":
		return c.SendCommand(ctx, "turn_"+direction, map[string]interface{}{"degrees": amount})
	default:
		return nil, fmt.Errorf("unknown direction: %s", direction)
	}
}

func (c *Client) Stop(ctx context.Context) (*Response, error) {
	return c.SendCommand(ctx, "stop", nil)
}

func (c *Client) Status(ctx context.Context) (*Response, error) {
	return c.SendCommand(ctx, "get_status", nil)
}

// CaptureFrame requests a camera frame and returns the base64 payload.
func (c *Client) CaptureFrame(ctx context.Context, context_ string) (string, error) {
	resp, err := c.SendCommand(ctx, "capture_frame", map[string]interface{}{
		"resolution": []int{640, 480},
		"context":    context_,
	})
	if err != nil {
		return "", err
	}
	if b64, ok := resp.Raw["image_b64"].(string); ok {
		return b64, nil
	}
	return "", fmt.Errorf("no frame in response")
}

func (r *Response) String() string {
	data, err := json.Marshal(r.Raw)
	if err != nil {
		return r.Type
	}
	return string(data)
}
