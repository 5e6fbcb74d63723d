package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const readFileLimit = 50 * 1024

// resolveWorkspacePath keeps tool file access inside the workspace.
func resolveWorkspacePath(workspace, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(workspace, full)
	}
	full = filepath.Clean(full)
	root := filepath.Clean(workspace)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return full, nil
}

type ReadFileTool struct {
	workspace string
}

func NewReadFileTool(workspace string) *ReadFileTool {
	return &ReadFileTool{workspace: workspace}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read a text file from the workspace."
}

func (t *ReadFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "File path relative to the workspace",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(_ context.Context, args map[string]interface{}) *ToolResult {
	path, err := resolveWorkspacePath(t.workspace, stringArg(args, "path"))
	if err != nil {
		return ErrorResult(err.Error())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrorResult(fmt.Sprintf("read failed: %v", err))
	}
	text := string(data)
	if len(text) > readFileLimit {
		text = text[:readFileLimit] + "\n[truncated]"
	}
	return &ToolResult{ForLLM: text, Silent: true}
}

type WriteFileTool struct {
	workspace string
}

func NewWriteFileTool(workspace string) *WriteFileTool {
	return &WriteFileTool{workspace: workspace}
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write content to a file in the workspace, creating parent directories as needed."
}

func (t *WriteFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "File path relative to the workspace",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The content to write",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(_ context.Context, args map[string]interface{}) *ToolResult {
	path, err := resolveWorkspacePath(t.workspace, stringArg(args, "path"))
	if err != nil {
		return ErrorResult(err.Error())
	}
	content := stringArg(args, "content")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return ErrorResult(fmt.Sprintf("create directory: %v", err))
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return ErrorResult(fmt.Sprintf("write failed: %v", err))
	}
	return &ToolResult{ForLLM: fmt.Sprintf("wrote %d bytes to %s", len(content), path), Silent: true}
}

type ListFilesTool struct {
	workspace string
}

func NewListFilesTool(workspace string) *ListFilesTool {
	return &ListFilesTool{workspace: workspace}
}

func (t *ListFilesTool) Name() string { return "list_files" }

func (t *ListFilesTool) Description() string {
	return "List the files in a workspace directory."
}

func (t *ListFilesTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory path relative to the workspace (default: workspace root)",
			},
		},
	}
}

func (t *ListFilesTool) Execute(_ context.Context, args map[string]interface{}) *ToolResult {
	rel := stringArg(args, "path")
	if rel == "" {
		rel = "."
	}
	path, err := resolveWorkspacePath(t.workspace, rel)
	if err != nil {
		return ErrorResult(err.Error())
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return ErrorResult(fmt.Sprintf("list failed: %v", err))
	}

	var lines []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		lines = append(lines, name)
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return &ToolResult{ForLLM: "(empty directory)", Silent: true}
	}
	return &ToolResult{ForLLM: strings.Join(lines, "\n"), Silent: true}
}
