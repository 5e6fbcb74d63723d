package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"genesisbridge/pkg/utils"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
)

// WebFetchTool fetches a URL and returns its text content with HTML
// stripped, truncated to a byte budget.
type WebFetchTool struct {
	client   *http.Client
	maxBytes int
}

func NewWebFetchTool(maxBytes int) *WebFetchTool {
	if maxBytes <= 0 {
		maxBytes = 10000
	}
	return &WebFetchTool{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxBytes,
	}
}

func (t *WebFetchTool) Name() string { return "web_fetch" }

func (t *WebFetchTool) Description() string {
	return "Fetch the text content of a web page. HTML markup is stripped; long pages are truncated."
}

func (t *WebFetchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to fetch (http or https)",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	url := stringArg(args, "url")
	if url == "" {
		return ErrorResult("url parameter is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ErrorResult("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ErrorResult(fmt.Sprintf("invalid url: %v", err))
	}
	req.Header.Set("User-Agent", "genesisbridge/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return ErrorResult(fmt.Sprintf("fetch failed: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ErrorResult(fmt.Sprintf("fetch failed: status %d", resp.StatusCode))
	}

	// Read a bit more than the budget so truncation happens after stripping.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(t.maxBytes)*10))
	if err != nil {
		return ErrorResult(fmt.Sprintf("read failed: %v", err))
	}

	text := StripHTML(string(body))
	if len(text) > t.maxBytes {
		text = text[:t.maxBytes] + "\n[truncated]"
	}
	return &ToolResult{ForLLM: text, Silent: true}
}

// StripHTML removes markup and collapses the remaining whitespace.
func StripHTML(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	).Replace(text)
	return utils.CollapseWhitespace(text)
}
