package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type panicTool struct{}

func (t *panicTool) Name() string                        { return "panic_tool" }
func (t *panicTool) Description() string                 { return "always panics" }
func (t *panicTool) Parameters() map[string]interface{}  { return map[string]interface{}{"type": "object"} }
func (t *panicTool) Execute(context.Context, map[string]interface{}) *ToolResult {
	panic("boom")
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(context.Background(), "nope", nil)
	if !result.IsError {
		t.Error("expected error result for unknown tool")
	}
}

func TestRegistryRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&panicTool{})
	result := r.Execute(context.Background(), "panic_tool", nil)
	if result == nil || !result.IsError {
		t.Fatalf("expected error result from panicking tool, got %+v", result)
	}
	if !strings.Contains(result.ForLLM, "boom") {
		t.Errorf("expected panic message in result, got %q", result.ForLLM)
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(NewRunShellTool(t.TempDir(), time.Second, 100))
	r.Register(NewReadFileTool(t.TempDir()))
	defs := r.Definitions()
	if len(defs) != 2 || defs[0].Name != "read_file" || defs[1].Name != "run_shell" {
		t.Errorf("expected sorted definitions, got %v", defs)
	}
}

func TestRunShellOutput(t *testing.T) {
	tool := NewRunShellTool(t.TempDir(), 10*time.Second, 4000)
	result := tool.Execute(context.Background(), map[string]interface{}{"command": "echo hello"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if strings.TrimSpace(result.ForLLM) != "hello" {
		t.Errorf("expected hello, got %q", result.ForLLM)
	}
}

func TestRunShellTruncatesOutput(t *testing.T) {
	tool := NewRunShellTool(t.TempDir(), 10*time.Second, 50)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"command": "yes x | head -n 100",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "[output truncated]") {
		t.Errorf("expected truncation marker, got %q", result.ForLLM)
	}
	if len(result.ForLLM) > 50+len("\n[output truncated]") {
		t.Errorf("output exceeds limit: %d bytes", len(result.ForLLM))
	}
}

func TestRunShellTimeout(t *testing.T) {
	tool := NewRunShellTool(t.TempDir(), 200*time.Millisecond, 4000)
	start := time.Now()
	result := tool.Execute(context.Background(), map[string]interface{}{"command": "sleep 5"})
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
	if !result.IsError || !strings.Contains(result.ForLLM, "timed out") {
		t.Errorf("expected timeout error, got %+v", result)
	}
}

func TestRunPythonMissingCode(t *testing.T) {
	tool := NewRunPythonTool(t.TempDir(), time.Second, 100)
	result := tool.Execute(context.Background(), map[string]interface{}{})
	if !result.IsError {
		t.Error("expected error for missing code")
	}
}

func TestStripHTML(t *testing.T) {
	html := `<html><head><script>var x = 1;</script><style>body{}</style></head>
<body><h1>Title</h1><p>Hello &amp; welcome</p></body></html>`
	text := StripHTML(html)
	if strings.Contains(text, "var x") || strings.Contains(text, "body{}") {
		t.Errorf("script/style not stripped: %q", text)
	}
	if !strings.Contains(text, "Title") || !strings.Contains(text, "Hello & welcome") {
		t.Errorf("expected text content, got %q", text)
	}
}

func TestWebFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>remote content</p></body></html>"))
	}))
	defer server.Close()

	tool := NewWebFetchTool(1000)
	result := tool.Execute(context.Background(), map[string]interface{}{"url": server.URL})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "remote content") {
		t.Errorf("expected fetched text, got %q", result.ForLLM)
	}
}

func TestWebFetchRejectsBadScheme(t *testing.T) {
	tool := NewWebFetchTool(1000)
	result := tool.Execute(context.Background(), map[string]interface{}{"url": "file:///etc/passwd"})
	if !result.IsError {
		t.Error("expected error for non-http url")
	}
}

func TestFileToolsRoundTrip(t *testing.T) {
	workspace := t.TempDir()
	write := NewWriteFileTool(workspace)
	read := NewReadFileTool(workspace)
	list := NewListFilesTool(workspace)
	ctx := context.Background()

	result := write.Execute(ctx, map[string]interface{}{"path": "notes/hello.txt", "content": "hi there"})
	if result.IsError {
		t.Fatalf("write failed: %s", result.ForLLM)
	}

	result = read.Execute(ctx, map[string]interface{}{"path": "notes/hello.txt"})
	if result.IsError || result.ForLLM != "hi there" {
		t.Errorf("expected file content, got %+v", result)
	}

	result = list.Execute(ctx, map[string]interface{}{})
	if result.IsError || !strings.Contains(result.ForLLM, "notes/") {
		t.Errorf("expected directory listing, got %+v", result)
	}
}

func TestFileToolsRejectTraversal(t *testing.T) {
	workspace := t.TempDir()
	read := NewReadFileTool(workspace)
	result := read.Execute(context.Background(), map[string]interface{}{"path": "../../etc/passwd"})
	if !result.IsError {
		t.Error("expected traversal rejected")
	}
}
