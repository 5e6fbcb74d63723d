package tools

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// runSandboxed executes a command with a hard wall-clock timeout and returns
// combined output truncated to the byte limit.
func runSandboxed(ctx context.Context, timeout time.Duration, limit int, dir, name string, args ...string) *ToolResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()

	text := string(output)
	truncated := false
	if len(text) > limit {
		text = text[:limit]
		truncated = true
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return ErrorResult(fmt.Sprintf("execution timed out after %s; partial output:\n%s", timeout, text))
	case err != nil:
		return ErrorResult(fmt.Sprintf("execution failed: %v\noutput:\n%s", err, text))
	}
	if text == "" {
		text = "(no output)"
	} else if truncated {
		text += "\n[output truncated]"
	}
	return &ToolResult{ForLLM: text, Silent: true}
}

// RunPythonTool executes a Python snippet.
type RunPythonTool struct {
	workspace   string
	timeout     time.Duration
	outputLimit int
}

func NewRunPythonTool(workspace string, timeout time.Duration, outputLimit int) *RunPythonTool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if outputLimit <= 0 {
		outputLimit = 4000
	}
	return &RunPythonTool{workspace: workspace, timeout: timeout, outputLimit: outputLimit}
}

func (t *RunPythonTool) Name() string { return "run_python" }

func (t *RunPythonTool) Description() string {
	return "Execute a Python 3 snippet and return its output. Execution is killed after a timeout and output is truncated."
}

func (t *RunPythonTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code": map[string]interface{}{
				"type":        "string",
				"description": "The Python code to run",
			},
		},
		"required": []string{"code"},
	}
}

func (t *RunPythonTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	code := stringArg(args, "code")
	if code == "" {
		return ErrorResult("code parameter is required")
	}
	return runSandboxed(ctx, t.timeout, t.outputLimit, t.workspace, "python3", "-c", code)
}

// RunShellTool executes a shell command under the same constraints.
type RunShellTool struct {
	workspace   string
	timeout     time.Duration
	outputLimit int
}

func NewRunShellTool(workspace string, timeout time.Duration, outputLimit int) *RunShellTool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if outputLimit <= 0 {
		outputLimit = 4000
	}
	return &RunShellTool{workspace: workspace, timeout: timeout, outputLimit: outputLimit}
}

func (t *RunShellTool) Name() string { return "run_shell" }

func (t *RunShellTool) Description() string {
	return "Execute a shell command in the workspace and return its output. Execution is killed after a timeout and output is truncated."
}

func (t *RunShellTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The shell command to run",
			},
		},
		"required": []string{"command"},
	}
}

func (t *RunShellTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	command := stringArg(args, "command")
	if command == "" {
		return ErrorResult("command parameter is required")
	}
	return runSandboxed(ctx, t.timeout, t.outputLimit, t.workspace, "sh", "-c", command)
}
