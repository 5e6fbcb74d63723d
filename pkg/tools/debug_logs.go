package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DebugLogsTool reads recent bridge log entries so the LLM can self-diagnose
// failures when the operator asks why something went wrong.
type DebugLogsTool struct {
	logPath string
}

func NewDebugLogsTool(logPath string) *DebugLogsTool {
	return &DebugLogsTool{logPath: logPath}
}

func (t *DebugLogsTool) Name() string { return "debug_logs" }

func (t *DebugLogsTool) Description() string {
	return "Read recent bridge log entries to diagnose errors or unexpected behavior. Supports filtering by log level or keyword."
}

func (t *DebugLogsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"lines": map[string]interface{}{
				"type":        "integer",
				"description": "Number of recent log lines to read (default: 50, max: 200)",
			},
			"keyword": map[string]interface{}{
				"type":        "string",
				"description": "Filter entries containing this keyword in message or fields",
			},
			"level": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"ERROR", "WARN", "INFO", "DEBUG"},
				"description": "Minimum log level to include",
			},
		},
	}
}

type logLine struct {
	Level     string                 `json:"level"`
	Timestamp string                 `json:"timestamp"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
}

func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case "ERROR":
		return 4
	case "WARN":
		return 3
	case "INFO":
		return 2
	case "DEBUG":
		return 1
	default:
		return 0
	}
}

func (t *DebugLogsTool) Execute(_ context.Context, args map[string]interface{}) *ToolResult {
	if t.logPath == "" {
		return ErrorResult("file logging is not enabled")
	}

	maxLines := intArg(args, "lines", 50)
	if maxLines <= 0 {
		maxLines = 50
	}
	if maxLines > 200 {
		maxLines = 200
	}
	keyword := strings.ToLower(stringArg(args, "keyword"))
	minLevel := levelPriority(stringArg(args, "level"))

	// Read extra lines so filters still leave enough entries.
	lines, err := readTail(t.logPath, maxLines*3)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read log file: %v", err))
	}

	var filtered []logLine
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logLine
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		if minLevel > 0 && levelPriority(e.Level) < minLevel {
			continue
		}
		if keyword != "" {
			found := strings.Contains(strings.ToLower(e.Message), keyword)
			if !found && len(e.Fields) > 0 {
				fieldsJSON, _ := json.Marshal(e.Fields)
				found = strings.Contains(strings.ToLower(string(fieldsJSON)), keyword)
			}
			if !found {
				continue
			}
		}
		filtered = append(filtered, e)
	}
	if len(filtered) > maxLines {
		filtered = filtered[len(filtered)-maxLines:]
	}
	if len(filtered) == 0 {
		return &ToolResult{ForLLM: "No log entries matched the filters.", Silent: true}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Bridge logs (%d entries) ===\n", len(filtered))
	for _, e := range filtered {
		fmt.Fprintf(&sb, "[%s] %s [%s] %s", e.Timestamp, e.Level, e.Component, e.Message)
		if len(e.Fields) > 0 {
			if fieldsJSON, err := json.Marshal(e.Fields); err == nil {
				fmt.Fprintf(&sb, " %s", fieldsJSON)
			}
		}
		sb.WriteString("\n")
	}

	result := sb.String()
	if len(result) > 8000 {
		result = "... (truncated)\n" + result[len(result)-8000:]
	}
	return &ToolResult{ForLLM: result, Silent: true}
}

// readTail returns the last n lines of a file.
func readTail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}
