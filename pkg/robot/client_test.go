package robot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// fakeBridge answers every command with a matching ack, except commands
// containing "bad", which get an error response.
func fakeBridge(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			if strings.Contains(cmd.Command, "bad") {
				conn.WriteJSON(map[string]interface{}{
					"type":  TypeError,
					"error": "unknown command: " + cmd.Command,
				})
				continue
			}
			reply := map[string]interface{}{
				"type":    TypeAck,
				"command": cmd.Command,
				"status":  map[string]interface{}{"state": "completed"},
			}
			if cmd.Command == "capture_frame" {
				reply["type"] = TypeVisionFrame
				reply["image_b64"] = "aGVsbG8="
			}
			conn.WriteJSON(reply)
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSendCommandAck(t *testing.T) {
	server := fakeBridge(t)
	defer server.Close()

	client := NewClient(wsURL(server))
	defer client.Close()

	resp, err := client.Move(context.Background(), "forward", 20)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if resp.Type != TypeAck || resp.Command != "move_forward" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestErrorResponse(t *testing.T) {
	server := fakeBridge(t)
	defer server.Close()

	client := NewClient(wsURL(server))
	defer client.Close()

	_, err := client.SendCommand(context.Background(), "bad_command", nil)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected robot error, got %v", err)
	}
}

func TestUnknownDirection(t *testing.T) {
	client := NewClient("ws://localhost:1")
	if _, err := client.Move(context.Background(), "sideways", 5); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestCaptureFrame(t *testing.T) {
	server := fakeBridge(t)
	defer server.Close()

	client := NewClient(wsURL(server))
	defer client.Close()

	b64, err := client.CaptureFrame(context.Background(), "test")
	if err != nil {
		t.Fatalf("CaptureFrame failed: %v", err)
	}
	if b64 != "aGVsbG8=" {
		t.Errorf("unexpected frame payload: %q", b64)
	}
}

func TestCommandToolRejectsUnknownAction(t *testing.T) {
	tool := NewCommandTool(NewClient("ws://localhost:1"))
	result := tool.Execute(context.Background(), map[string]interface{}{"action": "fly"})
	if !result.IsError {
		t.Error("expected error result for unknown action")
	}
}
